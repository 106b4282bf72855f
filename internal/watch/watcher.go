// Package watch polls a hook pool, recomputes its prices with the
// constant-sum engine and fans each observation out to sinks, a publisher and
// Prometheus gauges.
package watch

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"predictionScope/internal/hook"
	"predictionScope/internal/model"
	"predictionScope/internal/pool"
	"predictionScope/internal/retry"
	"predictionScope/internal/storage"
)

// PoolReader reads the hook's view of a pool.
type PoolReader interface {
	PoolInfo(ctx context.Context, key pool.Key, block *big.Int) (hook.PoolInfo, error)
}

// HeadReader reads chain head data.
type HeadReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Publisher forwards observations to subscribers.
type Publisher interface {
	Publish(ctx context.Context, obs Observation) error
}

// Config controls the poll loop.
type Config struct {
	Interval  time.Duration
	Tolerance decimal.Decimal
	Retry     retry.Policy
}

// Watcher polls one pool.
type Watcher struct {
	cfg       Config
	key       pool.Key
	poolID    common.Hash
	pools     PoolReader
	head      HeadReader
	sinks     []storage.SnapshotSink
	publisher Publisher
	metrics   *Metrics
	logger    *zap.Logger
	chainID   uint64
}

// Option wires an optional output into the watcher.
type Option func(*Watcher)

// WithSinks stores every observation in the given sinks.
func WithSinks(sinks ...storage.SnapshotSink) Option {
	return func(w *Watcher) {
		w.sinks = append(w.sinks, sinks...)
	}
}

// WithPublisher publishes every observation.
func WithPublisher(p Publisher) Option {
	return func(w *Watcher) {
		w.publisher = p
	}
}

// WithMetrics records every observation in m.
func WithMetrics(m *Metrics) Option {
	return func(w *Watcher) {
		w.metrics = m
	}
}

// New builds a watcher for key.
func New(cfg Config, key pool.Key, pools PoolReader, head HeadReader, logger *zap.Logger, opts ...Option) (*Watcher, error) {
	if pools == nil || head == nil {
		return nil, fmt.Errorf("pool reader and head reader are required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if cfg.Tolerance.IsNegative() {
		return nil, fmt.Errorf("tolerance must not be negative")
	}
	poolID, err := key.ID()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		cfg:    cfg,
		key:    key,
		poolID: poolID,
		pools:  pools,
		head:   head,
		logger: logger.With(zap.String("pool_id", poolID.Hex())),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run polls until ctx is cancelled. Failed polls are logged and counted; the
// loop keeps going. With once set, a single poll runs and its error is
// returned.
func (w *Watcher) Run(ctx context.Context, once bool) error {
	if once {
		_, err := w.Poll(ctx)
		return err
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll reads the pool at the latest block, builds an observation and emits
// it to every configured output.
func (w *Watcher) Poll(ctx context.Context) (Observation, error) {
	obs, err := w.observe(ctx)
	if err != nil {
		if w.metrics != nil {
			w.metrics.PollFailed(w.poolID.Hex())
		}
		return Observation{}, err
	}

	if w.metrics != nil {
		w.metrics.Observe(obs)
	}
	if err := w.emit(ctx, obs); err != nil {
		return obs, err
	}

	fields := []zap.Field{
		zap.Uint64("block", obs.Snapshot.BlockNumber),
		zap.String("reserve0", obs.Snapshot.Reserve0),
		zap.String("reserve1", obs.Snapshot.Reserve1),
		zap.String("price0", obs.Snapshot.Price0),
		zap.String("hook_price0", obs.Snapshot.HookPrice0),
	}
	switch {
	case obs.Snapshot.SumMismatch:
		w.logger.Warn("reserve sum differs from liquidity", append(fields, zap.String("liquidity", obs.Snapshot.Liquidity))...)
	case obs.Snapshot.Drift:
		w.logger.Warn("price drift", fields...)
	default:
		w.logger.Info("pool snapshot", fields...)
	}
	return obs, nil
}

func (w *Watcher) observe(ctx context.Context) (Observation, error) {
	if w.chainID == 0 {
		var chainID *big.Int
		if err := w.cfg.Retry.Do(ctx, func(ctx context.Context) error {
			var err error
			chainID, err = w.head.GetChainID(ctx)
			return err
		}); err != nil {
			return Observation{}, fmt.Errorf("chain id: %w", err)
		}
		if !chainID.IsUint64() {
			return Observation{}, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
		}
		w.chainID = chainID.Uint64()
	}

	head := Head{ChainID: w.chainID}
	if err := w.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		head.BlockNumber, err = w.head.LatestBlockNumber(ctx)
		return err
	}); err != nil {
		return Observation{}, fmt.Errorf("latest block: %w", err)
	}

	var info hook.PoolInfo
	block := new(big.Int).SetUint64(head.BlockNumber)
	if err := w.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		info, err = w.pools.PoolInfo(ctx, w.key, block)
		if err != nil {
			w.logger.Debug("pool info read failed", zap.Error(err))
		}
		return err
	}); err != nil {
		return Observation{}, fmt.Errorf("pool info: %w", err)
	}

	if err := w.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		head.Timestamp, err = w.head.BlockTimestamp(ctx, head.BlockNumber)
		return err
	}); err != nil {
		return Observation{}, fmt.Errorf("block timestamp: %w", err)
	}

	return BuildObservation(head, w.poolID, w.key.Hooks, info, w.cfg.Tolerance)
}

func (w *Watcher) emit(ctx context.Context, obs Observation) error {
	for _, sink := range w.sinks {
		if err := sink.PutSnapshots(ctx, []model.PoolSnapshot{obs.Snapshot}); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}
	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, obs); err != nil {
			return fmt.Errorf("publish snapshot: %w", err)
		}
	}
	return nil
}
