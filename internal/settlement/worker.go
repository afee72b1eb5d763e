package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/matches"
	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

// Worker liga os dois gatilhos de liquidação ao Engine:
// o consumo de match_finalized no Kafka e o poll de partidas com resultado
// gravado e liquidação pendente (retomada após crash).
type Worker struct {
	Log          *zap.Logger
	Reader       *kafka.Reader
	DLQ          *kafka.Writer
	Engine       *Engine
	Matches      MatchStore
	PollInterval time.Duration

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

// Run consome eventos match_finalized e liquida cada partida.
// Mensagens indecifráveis vão para a DLQ; erro de liquidação não descarta a
// partida porque o poll vai reprocessá-la.
func (w *Worker) Run(ctx context.Context) error {
	for {
		m, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			if w.OnError != nil {
				w.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if w.OnConsumed != nil {
			w.OnConsumed()
		}

		var ev events.MatchFinalized
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			w.Log.Warn("invalid match_finalized", zap.Error(err))
			if w.OnError != nil {
				w.OnError("decode")
			}
			if w.DLQ != nil {
				_ = skafka.WriteJSON(ctx, w.DLQ, string(m.Key), m.Value)
			}
			continue
		}

		score := matches.Score{HomeGoals: ev.HomeGoals, AwayGoals: ev.AwayGoals}
		if _, err := w.Engine.SettleMatch(ctx, ev.MatchID, score); err != nil {
			w.Log.Error("settle match", zap.String("matchId", ev.MatchID), zap.Error(err))
			if w.OnError != nil {
				w.OnError("settle")
			}
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// RunPoll varre periodicamente partidas com resultado e liquidação pendente.
func (w *Worker) RunPoll(ctx context.Context) {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pend, err := w.Matches.ListUnsettled(ctx)
			if err != nil {
				w.Log.Warn("list unsettled", zap.Error(err))
				if w.OnError != nil {
					w.OnError("poll")
				}
				continue
			}
			for _, m := range pend {
				if m.Result == nil {
					continue
				}
				if _, err := w.Engine.SettleMatch(ctx, m.ID, *m.Result); err != nil {
					w.Log.Error("poll settle", zap.String("matchId", m.ID), zap.Error(err))
				}
			}
		}
	}
}
