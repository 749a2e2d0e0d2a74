package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ankurvermaj09-ux/e-commerce/internal/config"
	kafkax "github.com/ankurvermaj09-ux/e-commerce/internal/kafka"
	"github.com/ankurvermaj09-ux/e-commerce/internal/logging"
	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/ankurvermaj09-ux/e-commerce/internal/projector"
	"github.com/ankurvermaj09-ux/e-commerce/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "fulfillment-projector",
		Usage:  "mirror order lifecycle events into the Redis status cache",
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.KafkaEnabled() || !cfg.RedisEnabled() {
		return errors.New("projector needs both kafka and redis")
	}
	service := cfg.ServiceName + "-projector"
	log, err := logging.New(cfg.LogLevel, service)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{
		Cache: redisx.NewStatusCache(rdb),
		Dedup: redisx.NewDedup(rdb, service),
		Log:   log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, orders.TopicOrderLifecycle, cfg.ProjectorWorkers, log)
	log.Info("projector consumer started",
		zap.String("group", cfg.ProjectorGroup),
		zap.String("topic", orders.TopicOrderLifecycle),
		zap.Int("workers", cfg.ProjectorWorkers))
	return cons.Start(ctx, svc.HandleLifecycleEvent)
}
