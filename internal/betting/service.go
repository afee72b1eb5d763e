package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/matches"
)

var (
	ErrInvalidStake = errors.New("invalid stake")
	ErrMatchClosed  = errors.New("match closed for betting")
	ErrNotFound     = errors.New("wager not found")
)

// Ledger é a fatia do BalanceLedger que a colocação de apostas usa.
// Nenhum outro caminho mexe em saldo de conta.
type Ledger interface {
	ApplyDelta(ctx context.Context, accountID string, amountCents int64, kind ledger.Kind, idempotencyKey, reference string) (ledger.Result, error)
}

type MatchStore interface {
	Match(ctx context.Context, id string) (*matches.Match, error)
	ListOpen(ctx context.Context) ([]matches.Match, error)
}

type WagerStore interface {
	Create(ctx context.Context, w *Wager) error
	Wager(ctx context.Context, id string) (*Wager, error)
	ListByAccount(ctx context.Context, accountID string) ([]Wager, error)
}

// Service coloca apostas: débito no ledger primeiro, registro da aposta depois.
type Service struct {
	log     *zap.Logger
	ledger  Ledger
	matches MatchStore
	wagers  WagerStore
	now     func() time.Time
}

func NewService(log *zap.Logger, l Ledger, m MatchStore, w WagerStore) *Service {
	return &Service{log: log, ledger: l, matches: m, wagers: w, now: time.Now}
}

// PlaceBet valida a partida e a seleção, debita o stake via ledger e só então
// grava a aposta. Se o débito falhar, nenhuma aposta é criada.
//
// wagerID pode vir do cliente (replay offline com a mesma chave); vazio gera
// um novo. Reenvios do mesmo wagerID devolvem a aposta já registrada.
func (s *Service) PlaceBet(ctx context.Context, accountID, matchID string, selection matches.Outcome, stakeCents int64, wagerID string) (*Wager, error) {
	if stakeCents <= 0 {
		return nil, ErrInvalidStake
	}
	if _, err := matches.ParseOutcome(string(selection)); err != nil {
		return nil, err
	}
	if wagerID == "" {
		wagerID = uuid.NewString()
	}

	m, err := s.matches.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.OpenForBetting(s.now()) {
		return nil, ErrMatchClosed
	}

	odd := m.Odds.For(selection)

	// Débito primeiro. InsufficientFunds e afins sobem direto pro chamador.
	debit, err := s.ledger.ApplyDelta(ctx, accountID, -stakeCents, ledger.KindApuesta, wagerID+":place", matchID)
	if err != nil {
		return nil, err
	}
	if debit.Duplicate {
		// o débito já tinha sido aplicado; se a aposta também já existe, é replay
		if existing, err := s.wagers.Wager(ctx, wagerID); err == nil {
			return existing, nil
		}
		// débito aplicado mas aposta não gravada (crash anterior); segue e grava
	}

	w := &Wager{
		ID:          wagerID,
		AccountID:   accountID,
		MatchID:     matchID,
		Selection:   selection,
		StakeCents:  stakeCents,
		Odd:         odd,
		PayoutCents: PayoutCents(stakeCents, odd),
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.wagers.Create(ctx, w); err != nil {
		// estorna o débito pra não deixar stake preso sem aposta registrada
		if _, rerr := s.ledger.ApplyDelta(ctx, accountID, stakeCents, ledger.KindRecarga, wagerID+":revert", matchID); rerr != nil {
			s.log.Error("revert stake after wager insert failure",
				zap.String("wagerId", wagerID), zap.Error(rerr))
		}
		return nil, fmt.Errorf("%w: %v", ledger.ErrLedgerWriteFailed, err)
	}

	s.log.Info("bet placed",
		zap.String("wagerId", wagerID),
		zap.String("accountId", accountID),
		zap.String("matchId", matchID),
		zap.String("selection", string(selection)),
		zap.Int64("stakeCents", stakeCents),
		zap.String("odd", odd.String()),
		zap.Int64("balanceAfter", debit.Entry.BalanceAfterCents),
	)
	return w, nil
}

// Wager devolve uma aposta pelo id.
func (s *Service) Wager(ctx context.Context, id string) (*Wager, error) {
	return s.wagers.Wager(ctx, id)
}

// ListByAccount devolve as apostas de uma conta, mais recente primeiro.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]Wager, error) {
	return s.wagers.ListByAccount(ctx, accountID)
}

// OpenMatches lista as partidas disponíveis com suas cotações fixas.
func (s *Service) OpenMatches(ctx context.Context) ([]matches.Match, error) {
	return s.matches.ListOpen(ctx)
}
