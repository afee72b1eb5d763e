package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/betting"
	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/matches"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

// Ledger é a fatia do BalanceLedger usada pela liquidação.
type Ledger interface {
	ApplyDelta(ctx context.Context, accountID string, amountCents int64, kind ledger.Kind, idempotencyKey, reference string) (ledger.Result, error)
}

type MatchStore interface {
	Match(ctx context.Context, id string) (*matches.Match, error)
	RecordResult(ctx context.Context, id string, score matches.Score) error
	MarkFinalized(ctx context.Context, id string) error
	ListUnsettled(ctx context.Context) ([]matches.Match, error)
}

type WagerStore interface {
	ListByMatch(ctx context.Context, matchID string, status betting.Status) ([]betting.Wager, error)
	MarkSettled(ctx context.Context, id string, status betting.Status) error
}

// Notifier recebe cada aposta liquidada (kafka + broadcast; melhor-esforço).
type Notifier interface {
	NotifySettled(ctx context.Context, e events.WagerSettled) error
}

// Outcome é o resultado da liquidação de uma aposta.
type Outcome struct {
	WagerID     string
	AccountID   string
	Status      betting.Status
	PayoutCents int64
}

// Engine liquida as apostas pendentes de uma partida finalizada.
// Todo crédito de ganho passa pelo ledger com chave derivada do wagerId,
// então reprocessar a mesma partida nunca paga duas vezes.
type Engine struct {
	log     *zap.Logger
	ledger  Ledger
	matches MatchStore
	wagers  WagerStore
	notify  Notifier

	// callbacks de métricas, ligadas no main
	OnSettled func(status string)
	OnError   func(stage string)
}

func NewEngine(log *zap.Logger, l Ledger, m MatchStore, w WagerStore, n Notifier) *Engine {
	return &Engine{log: log, ledger: l, matches: m, wagers: w, notify: n}
}

// SettleMatch aplica o resultado a todas as apostas pendentes da partida.
// Partida já finalizada é no-op e devolve lista vazia. A partida só é marcada
// como finalizada quando nenhuma aposta falhou, então uma execução
// interrompida é retomada pelo caminho de poll.
func (e *Engine) SettleMatch(ctx context.Context, matchID string, score matches.Score) ([]Outcome, error) {
	m, err := e.matches.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Finalized {
		return nil, nil
	}

	// o primeiro placar gravado vence; reentregas com placar divergente são ignoradas
	if m.Result == nil {
		if err := e.matches.RecordResult(ctx, matchID, score); err != nil {
			return nil, fmt.Errorf("record result: %w", err)
		}
	} else {
		score = *m.Result
	}
	actual := score.OutcomeOf()

	pending, err := e.wagers.ListByMatch(ctx, matchID, betting.StatusPending)
	if err != nil {
		return nil, err
	}

	var outcomes []Outcome
	var failed int
	for i := range pending {
		w := &pending[i]
		out, err := e.settleOne(ctx, w, actual, matchID)
		if err != nil {
			failed++
			if e.OnError != nil {
				e.OnError("settle")
			}
			e.log.Error("settle wager", zap.String("wagerId", w.ID), zap.Error(err))
			continue
		}
		outcomes = append(outcomes, out)
	}

	if failed > 0 {
		return outcomes, fmt.Errorf("settle match %s: %d wagers failed", matchID, failed)
	}

	if err := e.matches.MarkFinalized(ctx, matchID); err != nil {
		return outcomes, fmt.Errorf("mark finalized: %w", err)
	}

	e.log.Info("match settled",
		zap.String("matchId", matchID),
		zap.String("outcome", string(actual)),
		zap.Int("wagers", len(outcomes)),
	)
	return outcomes, nil
}

func (e *Engine) settleOne(ctx context.Context, w *betting.Wager, actual matches.Outcome, matchID string) (Outcome, error) {
	status := betting.StatusLost
	var payout int64

	if w.Selection == actual {
		// crédito antes da transição de status: a aposta só vira won com o
		// ganho confirmado no ledger. Retry é seguro: a chave deduplica.
		if _, err := e.ledger.ApplyDelta(ctx, w.AccountID, w.PayoutCents, ledger.KindGanancia, w.ID+":settle", matchID); err != nil {
			return Outcome{}, err
		}
		status = betting.StatusWon
		payout = w.PayoutCents
	}
	// stake não volta em derrota; já foi debitado na colocação

	if err := e.wagers.MarkSettled(ctx, w.ID, status); err != nil {
		return Outcome{}, err
	}

	if e.OnSettled != nil {
		e.OnSettled(string(status))
	}
	if e.notify != nil {
		if err := e.notify.NotifySettled(ctx, events.WagerSettled{
			WagerID:     w.ID,
			AccountID:   w.AccountID,
			MatchID:     matchID,
			Outcome:     string(actual),
			Status:      string(status),
			PayoutCents: payout,
			Ts:          time.Now().UTC(),
		}); err != nil {
			e.log.Warn("notify settled", zap.String("wagerId", w.ID), zap.Error(err))
		}
	}

	return Outcome{WagerID: w.ID, AccountID: w.AccountID, Status: status, PayoutCents: payout}, nil
}
