// Package simulator gera partidas e resultados para o stack local.
// Em produção este papel é de um provedor externo de resultados.
package simulator

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/matches"
	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

type MatchStore interface {
	Create(ctx context.Context, m *matches.Match) error
	ListOpen(ctx context.Context) ([]matches.Match, error)
	ListAwaitingResult(ctx context.Context) ([]matches.Match, error)
}

// Simulator mantém um catálogo mínimo de partidas abertas e publica o
// resultado das que já começaram.
type Simulator struct {
	Log       *zap.Logger
	Store     MatchStore
	Writer    *skafka.Writer
	Rng       *rand.Rand
	Sports    []matches.SportConfig
	MinOpen   int           // partidas abertas mínimas por esporte
	MatchSpan time.Duration // quanto tempo depois do kickoff sai o resultado

	OnCreated   func() // métricas (counter++)
	OnFinalized func()
}

// Run roda o ciclo de criação e finalização no intervalo dado.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Simulator) tick(ctx context.Context) {
	open, err := s.Store.ListOpen(ctx)
	if err != nil {
		s.Log.Warn("list open", zap.Error(err))
		return
	}

	perSport := make(map[string]int)
	for _, m := range open {
		perSport[m.Sport]++
	}
	for _, sc := range s.Sports {
		for perSport[sc.Sport] < s.MinOpen {
			if err := s.createMatch(ctx, sc); err != nil {
				s.Log.Warn("create match", zap.String("sport", sc.Sport), zap.Error(err))
				break
			}
			perSport[sc.Sport]++
		}
	}

	started, err := s.Store.ListAwaitingResult(ctx)
	if err != nil {
		s.Log.Warn("list awaiting result", zap.Error(err))
		return
	}
	for _, m := range started {
		// só encerra quando o "tempo de jogo" passou
		if time.Since(m.Kickoff) < s.MatchSpan {
			continue
		}
		s.finalize(ctx, m)
	}
}

func (s *Simulator) createMatch(ctx context.Context, sc matches.SportConfig) error {
	home := sc.Teams[s.Rng.Intn(len(sc.Teams))]
	away := home
	for away == home {
		away = sc.Teams[s.Rng.Intn(len(sc.Teams))]
	}

	m := &matches.Match{
		ID:       uuid.NewString(),
		Sport:    sc.Sport,
		HomeTeam: home,
		AwayTeam: away,
		Kickoff:  time.Now().Add(time.Duration(1+s.Rng.Intn(10)) * time.Minute),
		Odds:     matches.AssignOdds(s.Rng, sc),
	}
	if err := s.Store.Create(ctx, m); err != nil {
		return err
	}
	if s.OnCreated != nil {
		s.OnCreated()
	}
	s.Log.Info("match created",
		zap.String("matchId", m.ID),
		zap.String("sport", m.Sport),
		zap.String("home", home),
		zap.String("away", away),
	)
	return nil
}

func (s *Simulator) finalize(ctx context.Context, m matches.Match) {
	ev := events.MatchFinalized{
		MatchID:     m.ID,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeGoals:   s.Rng.Intn(5),
		AwayGoals:   s.Rng.Intn(5),
		FinalizedAt: time.Now().UTC(),
		Source:      "results-simulator",
	}

	b, _ := json.Marshal(ev)
	if err := skafka.WriteJSON(ctx, s.Writer, m.ID, b); err != nil {
		s.Log.Warn("publish match_finalized", zap.String("matchId", m.ID), zap.Error(err))
		return
	}
	if s.OnFinalized != nil {
		s.OnFinalized()
	}
	s.Log.Info("match finalized",
		zap.String("matchId", m.ID),
		zap.Int("home_goals", ev.HomeGoals),
		zap.Int("away_goals", ev.AwayGoals),
	)
}
