package ledger

import "errors"

var (
	// ErrInsufficientFunds indica que o débito deixaria o saldo negativo.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indica valor zero ou com sinal incompatível com o kind.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingIdempotencyKey indica chamada sem chave de idempotência.
	ErrMissingIdempotencyKey = errors.New("missing idempotency key")

	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account inactive")

	// ErrLedgerWriteFailed indica falha de escrita no storage. Nenhum estado
	// parcial sobrevive; o chamador deve reexecutar com a mesma chave.
	ErrLedgerWriteFailed = errors.New("ledger write failed")
)
