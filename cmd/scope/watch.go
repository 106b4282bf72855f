package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"predictionScope/internal/config"
	"predictionScope/internal/hook"
	"predictionScope/internal/retry"
	"predictionScope/internal/storage"
	"predictionScope/internal/storage/postgres"
	"predictionScope/internal/watch"
)

func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll pool state, flag price drift and publish snapshots",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "JSON-RPC URL")
	watchCmd.Flags().Duration("interval", 10*time.Second, "poll interval")
	watchCmd.Flags().Float64("tolerance", 1.0, "allowed price0 drift in percentage points")
	watchCmd.Flags().Bool("once", false, "poll once and exit")
	watchCmd.Flags().String("out", "", "append snapshots to this JSONL file")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN for pool_snapshots")
	watchCmd.Flags().String("nats-url", "", "NATS server URL")
	watchCmd.Flags().String("subject-prefix", "pool", "NATS subject prefix")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus /metrics on this address")
	watchCmd.Flags().Int("max-retries", 3, "read retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial read retry backoff")
	addMarketFlags(watchCmd.Flags())
	addLogFlag(watchCmd.Flags())

	return watchCmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	key, err := cfg.Market.PoolKey()
	if err != nil {
		return err
	}
	tolerance := decimal.NewFromFloat(cfg.Tolerance)
	if tolerance.IsNegative() {
		return fmt.Errorf("tolerance must not be negative")
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	var opts []watch.Option
	if cfg.Out != "" {
		opts = append(opts, watch.WithSinks(storage.NewJsonlStorage(cfg.Out)))
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
		opts = append(opts, watch.WithSinks(store))
	}
	if cfg.NATSURL != "" {
		publisher, err := watch.DialNATS(cfg.NATSURL, cfg.SubjectPrefix)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, watch.WithPublisher(publisher))
	}
	var metrics *watch.Metrics
	if cfg.MetricsAddr != "" {
		metrics = watch.NewMetrics()
		opts = append(opts, watch.WithMetrics(metrics))
	}

	watcher, err := watch.New(watch.Config{
		Interval:  cfg.Interval,
		Tolerance: tolerance,
		Retry:     retry.Policy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
	}, key, hook.NewClient(key.Hooks, chainClient), chainClient, logger, opts...)
	if err != nil {
		return err
	}

	logger.Info("watch start",
		zap.String("hook", key.Hooks.Hex()),
		zap.String("currency0", key.Currency0.Hex()),
		zap.String("currency1", key.Currency1.Hex()),
		zap.Duration("interval", cfg.Interval),
		zap.Float64("tolerance", cfg.Tolerance),
		zap.Bool("once", cfg.Once),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		defer cancel()
		return watcher.Run(groupCtx, cfg.Once)
	})
	if metrics != nil {
		group.Go(func() error {
			return metrics.Serve(groupCtx, cfg.MetricsAddr, logger)
		})
	}
	return group.Wait()
}
