package matches

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// SportConfig parametriza a geração de partidas de um esporte.
// Um único modelo de três saídas cobre todos os esportes; o que varia
// entre eles é só dado de configuração.
type SportConfig struct {
	Sport  string
	Teams  []string
	MinOdd decimal.Decimal // >= 1.01
	MaxOdd decimal.Decimal
}

// DefaultSports é o catálogo usado pelo results-simulator.
func DefaultSports() []SportConfig {
	return []SportConfig{
		{
			Sport:  "futbol",
			Teams:  []string{"Nacional", "Millonarios", "Santa Fe", "Junior", "Cali", "Medellin", "America", "Tolima"},
			MinOdd: decimal.NewFromFloat(1.20),
			MaxOdd: decimal.NewFromFloat(4.50),
		},
		{
			Sport:  "futbol_americano",
			Teams:  []string{"Halcones", "Titanes", "Gigantes", "Acereros", "Vaqueros", "Delfines"},
			MinOdd: decimal.NewFromFloat(1.30),
			MaxOdd: decimal.NewFromFloat(3.80),
		},
		{
			Sport:  "baloncesto",
			Teams:  []string{"Piratas", "Titanes BQ", "Cimarrones", "Condores", "Motilones", "Caribbean"},
			MinOdd: decimal.NewFromFloat(1.15),
			MaxOdd: decimal.NewFromFloat(5.00),
		},
	}
}

// AssignOdds sorteia cotações fixas dentro da faixa do esporte,
// com duas casas decimais.
func AssignOdds(rng *rand.Rand, c SportConfig) Odds {
	return Odds{
		Local:     randomOdd(rng, c.MinOdd, c.MaxOdd),
		Empate:    randomOdd(rng, c.MinOdd, c.MaxOdd),
		Visitante: randomOdd(rng, c.MinOdd, c.MaxOdd),
	}
}

func randomOdd(rng *rand.Rand, min, max decimal.Decimal) decimal.Decimal {
	span := max.Sub(min)
	f := decimal.NewFromFloat(rng.Float64())
	return min.Add(span.Mul(f)).Round(2)
}
