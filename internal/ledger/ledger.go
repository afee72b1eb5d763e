package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store é o colaborador de persistência do ledger. Apply precisa ser atômico:
// ou grava o movimento e o novo saldo juntos, ou não grava nada.
type Store interface {
	Account(ctx context.Context, accountID string) (*Account, error)
	// Apply deduplica pela chave de idempotência, valida saldo e grava
	// movimento + saldo numa unidade só. Retorna duplicate=true com o
	// registro original quando a chave já foi aplicada.
	Apply(ctx context.Context, e *Entry) (applied *Entry, duplicate bool, err error)
	Entries(ctx context.Context, accountID string, from, to time.Time) ([]Entry, error)
}

// Service é o BalanceLedger: único escritor de saldo de conta.
// Serializa mutações por conta; contas diferentes andam em paralelo.
type Service struct {
	store Store
	log   *zap.Logger
	locks sync.Map // accountID -> *sync.Mutex

	// callbacks de métricas, ligadas no main
	OnApplied      func(kind Kind)
	OnDuplicate    func()
	OnInsufficient func()
}

func New(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) lockFor(accountID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ApplyDelta aplica um movimento assinado de saldo exatamente uma vez.
// Retries com a mesma idempotencyKey devolvem o resultado original.
func (s *Service) ApplyDelta(ctx context.Context, accountID string, amountCents int64, kind Kind, idempotencyKey, reference string) (Result, error) {
	if accountID == "" {
		return Result{}, ErrAccountNotFound
	}
	if idempotencyKey == "" {
		return Result{}, ErrMissingIdempotencyKey
	}
	if amountCents == 0 || !kind.Valid() {
		return Result{}, ErrInvalidAmount
	}
	// kind e sinal precisam concordar: recarga/ganancia creditam, retiro/apuesta debitam
	if kind.Credit() != (amountCents > 0) {
		return Result{}, ErrInvalidAmount
	}

	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	entry := &Entry{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		AmountCents:    amountCents,
		Kind:           kind,
		IdempotencyKey: idempotencyKey,
		Reference:      reference,
		CreatedAt:      time.Now().UTC(),
	}

	applied, duplicate, err := s.store.Apply(ctx, entry)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			if s.OnInsufficient != nil {
				s.OnInsufficient()
			}
			return Result{}, err
		case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrAccountInactive):
			return Result{}, err
		default:
			s.log.Error("ledger apply",
				zap.String("accountId", accountID),
				zap.String("key", idempotencyKey),
				zap.Error(err),
			)
			return Result{}, fmt.Errorf("%w: %v", ErrLedgerWriteFailed, err)
		}
	}

	if duplicate {
		if s.OnDuplicate != nil {
			s.OnDuplicate()
		}
		s.log.Info("duplicate delta ignored",
			zap.String("accountId", accountID),
			zap.String("key", idempotencyKey),
		)
		return Result{Entry: *applied, Duplicate: true}, nil
	}

	if s.OnApplied != nil {
		s.OnApplied(kind)
	}
	s.log.Info("delta applied",
		zap.String("accountId", accountID),
		zap.String("kind", string(kind)),
		zap.Int64("amountCents", amountCents),
		zap.Int64("balanceAfter", applied.BalanceAfterCents),
	)
	return Result{Entry: *applied}, nil
}

// GetBalance lê o saldo comprometido mais recente da conta.
func (s *Service) GetBalance(ctx context.Context, accountID string) (int64, error) {
	acc, err := s.store.Account(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.BalanceCents, nil
}

// ListTransactions devolve os movimentos da conta no período, mais recente primeiro.
// Alimenta o colaborador de relatórios; a formatação fica fora daqui.
func (s *Service) ListTransactions(ctx context.Context, accountID string, from, to time.Time) ([]Entry, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return s.store.Entries(ctx, accountID, from, to)
}
