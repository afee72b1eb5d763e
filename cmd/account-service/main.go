package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/account"
	ahttp "github.com/apuestago/bet-ledger/internal/account/http"
	arepo "github.com/apuestago/bet-ledger/internal/account/repo"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/db"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("account-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	svc := account.NewService(log, arepo.NewPostgres(pg), []byte(cfg.JWTSecret))
	api := ahttp.NewServer(log, svc, []byte(cfg.JWTSecret))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8084
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
