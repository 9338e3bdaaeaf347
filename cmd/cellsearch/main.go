package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/cellsearch/cmd/cellsearch/app"
)

func main() {
	var logLevel slog.LevelVar
	// stdout carries the report
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := app.NewCommand(logger, &logLevel)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}

	if app.HelpRequested(cmd) {
		cancel()
		os.Exit(1)
	}
}
