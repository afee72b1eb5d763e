package main

import (
	"context"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/matches"
	mrepo "github.com/apuestago/bet-ledger/internal/matches/repo"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/db"
	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
	"github.com/apuestago/bet-ledger/internal/simulator"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("results-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchFinalized)
	defer writer.Close()

	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_matches_created_total", Help: "partidas criadas"})
	finalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_matches_finalized_total", Help: "resultados publicados"})
	prometheus.MustRegister(created, finalized)

	sim := &simulator.Simulator{
		Log:         log,
		Store:       mrepo.NewPostgres(pg),
		Writer:      writer,
		Rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		Sports:      matches.DefaultSports(),
		MinOpen:     3,
		MatchSpan:   2 * time.Minute,
		OnCreated:   func() { created.Inc() },
		OnFinalized: func() { finalized.Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("results-simulator started", zap.Duration("interval", cfg.SimulateInterval))
	sim.Run(ctx, cfg.SimulateInterval)
}
