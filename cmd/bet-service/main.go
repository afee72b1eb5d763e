package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/apuestago/bet-ledger/internal/betting"
	bhttp "github.com/apuestago/bet-ledger/internal/betting/http"
	kpub "github.com/apuestago/bet-ledger/internal/betting/producer"
	brepo "github.com/apuestago/bet-ledger/internal/betting/repo"
	"github.com/apuestago/bet-ledger/internal/ledger"
	lrepo "github.com/apuestago/bet-ledger/internal/ledger/repo"
	mrepo "github.com/apuestago/bet-ledger/internal/matches/repo"
	"github.com/apuestago/bet-ledger/internal/shared/config"
	"github.com/apuestago/bet-ledger/internal/shared/db"
	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/internal/shared/logger"
	"github.com/apuestago/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("bet-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer (topic bet_placed)
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// O débito da aposta passa pelo mesmo ledger.Service que atende
	// recarga/retiro: um único escritor por conta.
	ledgerSvc := ledger.New(lrepo.NewPostgres(pg), log)

	svc := betting.NewService(log, ledgerSvc, mrepo.NewPostgres(pg), brepo.NewPostgres(pg))
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced)

	api := bhttp.NewServer(log, svc, []byte(cfg.JWTSecret), publ)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8083
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
