package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WGlynn/divvy/internal/config"
	"github.com/WGlynn/divvy/internal/domain/model"
	"github.com/WGlynn/divvy/internal/emitter"
	"github.com/WGlynn/divvy/pkg/logger"
)

func main() {
	var (
		target   = flag.String("url", "", "Base URL of the engine (overrides config)")
		operator = flag.String("operator", "", "Operator account used for game creation (default: first configured operator)")
		interval = flag.Duration("interval", 0, "Mint-and-drain interval (overrides config)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	opts := []emitter.Option{
		emitter.WithTarget(cfg.EmitterTarget),
		emitter.WithAsset(model.AssetID(cfg.EmitterAsset)),
		emitter.WithInterval(time.Duration(cfg.EmitterIntervalMS) * time.Millisecond),
		emitter.WithMint(cfg.EmitterMint),
		emitter.WithDrainBounds(cfg.DrainMinBPS, cfg.DrainMaxBPS),
	}
	if len(cfg.Operators) > 0 {
		opts = append(opts, emitter.WithOperator(model.AccountID(cfg.Operators[0])))
	}

	// Flags override file and env configuration.
	if *target != "" {
		opts = append(opts, emitter.WithTarget(*target))
	}
	if *operator != "" {
		opts = append(opts, emitter.WithOperator(model.AccountID(*operator)))
	}
	if *interval > 0 {
		opts = append(opts, emitter.WithInterval(*interval))
	}

	if err := emitter.New(opts...).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Stderr.WriteString("emitter failed: " + err.Error() + "\n")
	}
}
