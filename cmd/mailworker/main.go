// mailworker drains the redis outbox queue: every queued message is
// sent through SMTP and archived over IMAP like a direct send.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeflowuniverse/heromail/pkg/mail"
	"github.com/freeflowuniverse/heromail/pkg/mailer"
	"github.com/freeflowuniverse/heromail/pkg/outbox"
)

func main() {
	configPath := flag.String("config", "heromail.yaml", "Path to YAML configuration file")
	popTimeout := flag.Duration("pop-timeout", 5*time.Second, "Blocking pop timeout per poll")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := mailer.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	m := mailer.NewFromConfig(cfg, logger)
	processor := func(ctx context.Context, msg *mail.Message) error {
		outcome := m.Send(ctx, msg)
		if !outcome.Sent {
			return outcome.SendErr
		}
		if outcome.ArchiveErr != nil {
			// Delivered but not archived: log and move on, requeueing
			// would send the message twice.
			logger.Warn("message sent but not archived", "subject", msg.Subject, "error", outcome.ArchiveErr)
		}
		return nil
	}

	logger.Info("mailworker started", "redis", cfg.Redis.Addr, "smtp", cfg.SMTP.Addr())

	// Process returns on the first processing error; keep draining
	// until the context is cancelled.
	for {
		err := outbox.Process(ctx, rdb, processor, *popTimeout)
		if errors.Is(err, context.Canceled) {
			break
		}
		logger.Error("outbox processing error", "error", err)
		time.Sleep(time.Second)
	}

	logger.Info("mailworker stopped")
}
