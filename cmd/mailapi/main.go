// mailapi exposes the mailer over HTTP: synchronous sends, outbox
// queueing, and queue inspection.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/freeflowuniverse/heromail/api/routes"
	"github.com/freeflowuniverse/heromail/pkg/mailer"
)

func main() {
	configPath := flag.String("config", "heromail.yaml", "Path to YAML configuration file")
	listen := flag.String("listen", ":8025", "HTTP listen address")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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

	app := fiber.New(fiber.Config{
		AppName:               "heromail",
		DisableStartupMessage: true,
	})

	handler := routes.NewMailHandler(mailer.NewFromConfig(cfg, logger), rdb, logger)
	handler.RegisterRoutes(app)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("mailapi started", "listen", *listen, "smtp", cfg.SMTP.Addr(), "archive", cfg.Archive)
	if err := app.Listen(*listen); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("mailapi stopped")
}
