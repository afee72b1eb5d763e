// Package ledgertest traz um ledger.Store em memória para testes de unidade
// dos pacotes que dependem do ledger.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/apuestago/bet-ledger/internal/ledger"
)

// Store guarda contas e movimentos em memória com a mesma semântica do
// repositório Postgres: dedup por chave, saldo nunca negativo, escrita atômica.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*ledger.Account
	entries  map[string][]ledger.Entry // accountID -> movimentos em ordem

	// FailNext força um erro de storage na próxima chamada de Apply.
	FailNext error
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*ledger.Account),
		entries:  make(map[string][]ledger.Entry),
	}
}

// Seed cria uma conta ativa com saldo inicial (gravando uma recarga de abertura
// quando o saldo é positivo, para manter o invariante soma == saldo).
func (s *Store) Seed(accountID string, balanceCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = &ledger.Account{
		ID:           accountID,
		BalanceCents: balanceCents,
		Status:       ledger.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if balanceCents > 0 {
		s.entries[accountID] = []ledger.Entry{{
			ID:                "seed:" + accountID,
			AccountID:         accountID,
			AmountCents:       balanceCents,
			Kind:              ledger.KindRecarga,
			BalanceAfterCents: balanceCents,
			IdempotencyKey:    "seed:" + accountID,
			CreatedAt:         time.Now().UTC(),
		}}
	}
}

// Deactivate marca a conta como inativa.
func (s *Store) Deactivate(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[accountID]; ok {
		a.Status = ledger.StatusInactive
	}
}

func (s *Store) Account(_ context.Context, accountID string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) Apply(_ context.Context, e *ledger.Entry) (*ledger.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return nil, false, err
	}

	a, ok := s.accounts[e.AccountID]
	if !ok {
		return nil, false, ledger.ErrAccountNotFound
	}
	if a.Status != ledger.StatusActive {
		return nil, false, ledger.ErrAccountInactive
	}

	for _, prior := range s.entries[e.AccountID] {
		if prior.IdempotencyKey == e.IdempotencyKey {
			cp := prior
			return &cp, true, nil
		}
	}

	newBalance := a.BalanceCents + e.AmountCents
	if newBalance < 0 {
		return nil, false, ledger.ErrInsufficientFunds
	}

	e.BalanceAfterCents = newBalance
	a.BalanceCents = newBalance
	s.entries[e.AccountID] = append(s.entries[e.AccountID], *e)
	return e, false, nil
}

func (s *Store) Entries(_ context.Context, accountID string, from, to time.Time) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ledger.Entry
	list := s.entries[accountID]
	for i := len(list) - 1; i >= 0; i-- {
		e := list[i]
		if e.CreatedAt.Before(from) || e.CreatedAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// EntryCount devolve quantos movimentos a conta tem gravados.
func (s *Store) EntryCount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[accountID])
}

// SumAmounts soma os valores assinados dos movimentos da conta.
func (s *Store) SumAmounts(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, e := range s.entries[accountID] {
		sum += e.AmountCents
	}
	return sum
}
