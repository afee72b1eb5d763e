package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/notify"
	"github.com/apuestago/bet-ledger/internal/shared/cache"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("notify-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// cliente de navegador: origem liberada no demo
	hub := notify.NewHub(func(r *http.Request) bool { return true })
	notify.StartRedisSubscriber(context.Background(), log, rdb, cfg.RedisPubSubChannel, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8085
		Handler: mux,
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	log.Info("ws listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("ws srv", zap.Error(err))
	}
}
