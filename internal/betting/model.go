package betting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/apuestago/bet-ledger/internal/matches"
)

// Status da aposta. Transiciona de pending para won/lost exatamente uma vez.
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Wager é uma aposta de uma conta numa saída de uma partida.
// PayoutCents é fixado na colocação (stake × odd) e não muda depois.
type Wager struct {
	ID          string
	AccountID   string
	MatchID     string
	Selection   matches.Outcome
	StakeCents  int64
	Odd         decimal.Decimal
	PayoutCents int64
	Status      Status
	CreatedAt   time.Time
	SettledAt   *time.Time
}

// PayoutCents calcula o retorno potencial em centavos, arredondando
// meio-para-cima no centavo.
func PayoutCents(stakeCents int64, odd decimal.Decimal) int64 {
	return decimal.NewFromInt(stakeCents).Mul(odd).Round(0).IntPart()
}
