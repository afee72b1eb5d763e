package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	brepo "github.com/apuestago/bet-ledger/internal/betting/repo"
	"github.com/apuestago/bet-ledger/internal/ledger"
	lrepo "github.com/apuestago/bet-ledger/internal/ledger/repo"
	mrepo "github.com/apuestago/bet-ledger/internal/matches/repo"
	"github.com/apuestago/bet-ledger/internal/settlement"
	"github.com/apuestago/bet-ledger/internal/shared/cache"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/db"
	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("settlement-worker", cfg.Env)
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

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: consome match_finalized, publica wager_settled, DLQ p/ veneno
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchFinalized, "settlement-worker")
	defer reader.Close()

	settledWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()

	dlqWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchFinalizedDLQ)
	defer dlqWriter.Close()

	// Métricas de liquidação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_events_consumed_total", Help: "eventos match_finalized consumidos"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_wagers_settled_total", Help: "apostas liquidadas por status"}, []string{"status"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	matchStore := mrepo.NewPostgres(pg)
	wagerStore := brepo.NewPostgres(pg)
	ledgerSvc := ledger.New(lrepo.NewPostgres(pg), log)
	notifier := settlement.NewFanoutNotifier(settledWriter, rdb, cfg.RedisPubSubChannel)

	engine := settlement.NewEngine(log, ledgerSvc, matchStore, wagerStore, notifier)
	engine.OnSettled = func(status string) { settled.WithLabelValues(status).Inc() }
	engine.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	worker := &settlement.Worker{
		Log:          log,
		Reader:       reader,
		DLQ:          dlqWriter,
		Engine:       engine,
		Matches:      matchStore,
		PollInterval: cfg.SettlePollInterval,
		OnConsumed:   func() { consumed.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	go worker.RunPoll(ctx)

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicMatchFinalized),
		zap.String("publish", cfg.TopicWagerSettled),
	)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker", zap.Error(err))
	}
}
