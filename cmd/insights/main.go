package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lightouch/insights/internal/app"
	"github.com/lightouch/insights/internal/config"
	"github.com/lightouch/insights/internal/logging"
)

func main() {
	loop := flag.Bool("loop", false, "keep running on the configured schedule instead of a single pass")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)
	defer application.Close()

	run := application.Run
	if *loop {
		run = application.RunScheduled
	}

	if err := run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
