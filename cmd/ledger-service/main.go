package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/ledger"
	lhttp "github.com/apuestago/bet-ledger/internal/ledger/http"
	lrepo "github.com/apuestago/bet-ledger/internal/ledger/repo"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/db"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Postgres: contas e movimentos
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Métricas do ledger
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_deltas_applied_total", Help: "movimentos aplicados por kind"}, []string{"kind"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_duplicate_requests_total", Help: "requisições deduplicadas por chave"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_insufficient_funds_total", Help: "débitos recusados por saldo"})
	prometheus.MustRegister(applied, duplicates, insufficient)

	svc := ledger.New(lrepo.NewPostgres(pg), log)
	svc.OnApplied = func(k ledger.Kind) { applied.WithLabelValues(string(k)).Inc() }
	svc.OnDuplicate = func() { duplicates.Inc() }
	svc.OnInsufficient = func() { insufficient.Inc() }

	api := lhttp.NewServer(log, svc, []byte(cfg.JWTSecret))
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8082
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
