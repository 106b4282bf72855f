package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/config"
	"predictionScope/internal/replay"
	"predictionScope/internal/storage/postgres"
)

func newReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild reserves and window metrics from typed hook events",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "./data/typed_events.jsonl", "input typed events JSONL")
	replayCmd.Flags().String("window", "5m", "metrics window (e.g. 1m, 5m, 1h)")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN; metrics go to --out when empty")
	replayCmd.Flags().String("out", "./data/price_windows.jsonl", "metrics JSONL path when no DSN is set")
	replayCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	replayCmd.Flags().String("state-file", "", "local state file for progress tracking")
	replayCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	addLogFlag(replayCmd.Flags())

	return replayCmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" && cfg.Out == "" {
		return fmt.Errorf("either pg dsn or out path is required")
	}

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	var (
		sink       replay.Sink
		stateStore replay.StateStore
	)
	if cfg.StateFile != "" {
		stateStore = &replay.FileStateStore{Path: cfg.StateFile}
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sink = store
		if stateStore == nil {
			stateStore = &replay.DBStateStore{Backend: store, Name: fmt.Sprintf("replay:%d", windowSeconds)}
		}
	} else {
		// A resumed run only emits windows after the saved point, so keep
		// what earlier runs wrote.
		jsonlSink, err := replay.NewJSONLSink(cfg.Out, stateStore != nil && recomputeFrom == 0)
		if err != nil {
			return err
		}
		defer jsonlSink.Close()
		sink = jsonlSink
	}

	replayer := replay.NewReplayer(replay.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
	}, sink, logger)

	logger.Info("replay start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("out", cfg.Out),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
	)

	_, err = replayer.Run(ctx, cfg.Input)
	return err
}
