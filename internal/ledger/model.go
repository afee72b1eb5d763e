package ledger

import "time"

// Kind classifica cada movimento de saldo.
type Kind string

const (
	KindRecarga  Kind = "recarga"
	KindRetiro   Kind = "retiro"
	KindApuesta  Kind = "apuesta"
	KindGanancia Kind = "ganancia"
)

// Credit informa se o kind representa entrada (true) ou saída (false) de saldo.
func (k Kind) Credit() bool {
	return k == KindRecarga || k == KindGanancia
}

func (k Kind) Valid() bool {
	switch k {
	case KindRecarga, KindRetiro, KindApuesta, KindGanancia:
		return true
	}
	return false
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Account é a conta dona do saldo. Só o ledger escreve em BalanceCents.
type Account struct {
	ID           string
	Email        string
	BalanceCents int64
	Status       string
	CreatedAt    time.Time
}

// Entry é um movimento aplicado, imutável depois de gravado.
// BalanceAfterCents guarda o snapshot do saldo resultante; a soma dos
// AmountCents de uma conta sempre bate com o saldo corrente dela.
type Entry struct {
	ID                string
	AccountID         string
	AmountCents       int64 // assinado: débito negativo, crédito positivo
	Kind              Kind
	BalanceAfterCents int64
	IdempotencyKey    string
	Reference         string // opcional, ex: matchId ou wagerId
	CreatedAt         time.Time
}

// Result é a resposta de ApplyDelta. Duplicate indica que a chave de
// idempotência já tinha sido aplicada e Entry é o registro original.
type Result struct {
	Entry     Entry
	Duplicate bool
}
