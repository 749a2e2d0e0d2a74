package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankurvermaj09-ux/e-commerce/internal/config"
	"github.com/ankurvermaj09-ux/e-commerce/internal/fulfillment"
	"github.com/ankurvermaj09-ux/e-commerce/internal/httpx"
	kafkax "github.com/ankurvermaj09-ux/e-commerce/internal/kafka"
	"github.com/ankurvermaj09-ux/e-commerce/internal/logging"
	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/ankurvermaj09-ux/e-commerce/internal/postgres"
	"github.com/ankurvermaj09-ux/e-commerce/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "fulfillment-api",
		Usage:  "checkout and order lifecycle API",
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serve},
			{Name: "migrate", Usage: "apply database migrations", Action: migrate},
		},
	}
	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func migrate(*cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return postgres.Migrate(cfg.PostgresDSN)
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	deps := fulfillment.Deps{
		Ledger:      &postgres.StockLedger{DB: db},
		Carts:       &postgres.CartStore{DB: db},
		Orders:      &postgres.OrderStore{DB: db},
		Logger:      log,
		ServiceName: cfg.ServiceName,
	}
	h := &httpx.OrdersHandler{Log: log}

	// Redis: shared checkout lock, idempotency keys, status cache
	if cfg.RedisEnabled() {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		deps.Locker = redisx.NewLocker(rdb, cfg.LockTTL)
		deps.Idempotency = redisx.NewIdempotency(rdb)
		h.Cache = redisx.NewStatusCache(rdb)
	} else {
		log.Warn("redis disabled, checkout lock is per process")
	}

	// Kafka: lifecycle events
	var prod *kafkax.Producer
	if cfg.KafkaEnabled() {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderLifecycle, 1024, log)
		prod.Start(ctx)
		deps.Events = kafkax.EventWriter{Producer: prod}
	}

	h.Core = fulfillment.NewService(deps)
	router := httpx.NewRouter(log)
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(sctx)
		if prod != nil {
			prod.Close()
			prod.WaitClosed()
		}
		return err
	})
	return g.Wait()
}
