package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"cellmon/backend/libs/logging"
	"cellmon/backend/services/cellular-poller/internal/app"
	"cellmon/backend/services/cellular-poller/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Read telemetry from a Teltonika router and insert it into Postgres.\n\nUsage: cellular-poller [flags]\n\n%s", fs.FlagUsages())
		return
	}

	cfg, err := config.Load(opts.configPath, overrides(fs, &opts))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.LogLevel(), Encoding: cfg.Log.Encoding})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init application", zap.Error(err))
	}
	defer application.Close()

	logger.Info("starting cellular poller",
		zap.String("router", cfg.Router.Host),
		zap.String("table", cfg.Database.Table),
		zap.Duration("interval", cfg.Poll.Interval),
	)
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}
