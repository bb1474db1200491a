package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/educacao-adventista/matriculometro/internal/board"
	"github.com/educacao-adventista/matriculometro/internal/config"
	"github.com/educacao-adventista/matriculometro/internal/logger"
	"github.com/educacao-adventista/matriculometro/internal/progress"
)

const clearScreen = "\033[H\033[2J"

func main() {
	once := flag.Bool("once", false, "print the summary once and exit")
	flag.Parse()

	cfg := config.Load()

	// Logs go to stderr so they do not interleave with the board.
	logger.InitTo(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	tty := isTerminal(os.Stdout)
	opts := board.Options{Color: tty}

	render := func(s progress.Summary) {
		if tty {
			fmt.Fprint(os.Stdout, clearScreen)
		}
		err := board.Render(os.Stdout, s, opts)
		if err != nil {
			slog.Error("failed to render board", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := board.NewPoller(cfg.BoardAPIURL, cfg.BoardPollInterval, render)

	if *once {
		summary, err := poller.Fetch(ctx)
		if err != nil {
			slog.Error("failed to fetch summary", "error", err)
			logger.Flush()
			os.Exit(1)
		}
		render(summary)
		return
	}

	slog.Info("board starting", "url", cfg.BoardAPIURL, "interval", cfg.BoardPollInterval)
	err := poller.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("board stopped", "error", err)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
