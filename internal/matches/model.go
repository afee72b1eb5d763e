package matches

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome é uma das três saídas possíveis de uma partida.
type Outcome string

const (
	OutcomeLocal     Outcome = "local"
	OutcomeEmpate    Outcome = "empate"
	OutcomeVisitante Outcome = "visitante"
)

var ErrInvalidOutcome = errors.New("invalid outcome")

func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeLocal, OutcomeEmpate, OutcomeVisitante:
		return Outcome(s), nil
	}
	return "", ErrInvalidOutcome
}

// Score é o placar final de uma partida.
type Score struct {
	HomeGoals int
	AwayGoals int
}

// OutcomeOf traduz o placar na saída correspondente.
func (s Score) OutcomeOf() Outcome {
	switch {
	case s.HomeGoals > s.AwayGoals:
		return OutcomeLocal
	case s.AwayGoals > s.HomeGoals:
		return OutcomeVisitante
	default:
		return OutcomeEmpate
	}
}

// Odds são as cotações fixas das três saídas, atribuídas na criação da
// partida e nunca recalculadas.
type Odds struct {
	Local     decimal.Decimal
	Empate    decimal.Decimal
	Visitante decimal.Decimal
}

// For devolve a cotação da saída escolhida.
func (o Odds) For(sel Outcome) decimal.Decimal {
	switch sel {
	case OutcomeLocal:
		return o.Local
	case OutcomeVisitante:
		return o.Visitante
	default:
		return o.Empate
	}
}

// Match é uma partida com cotações fixas.
// Result fica nil até a finalização; depois de Finalized nada mais muda.
type Match struct {
	ID        string
	Sport     string
	HomeTeam  string
	AwayTeam  string
	Kickoff   time.Time
	Odds      Odds
	Result    *Score
	Finalized bool
	CreatedAt time.Time
}

// OpenForBetting diz se a partida ainda aceita apostas.
func (m *Match) OpenForBetting(now time.Time) bool {
	return !m.Finalized && m.Result == nil && now.Before(m.Kickoff)
}
