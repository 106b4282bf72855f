// Package replay folds decoded hook events through the constant-sum engine,
// rebuilding each pool's reserves and emitting per-window price metrics.
package replay

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"predictionScope/internal/amm"
	"predictionScope/internal/hook"
	"predictionScope/internal/model"
	"predictionScope/internal/storage"
)

// Sink receives replay output.
type Sink interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertPriceWindowMetrics(ctx context.Context, metrics []model.PriceWindowMetrics) error
}

// Config controls replay behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Stats summarizes one run.
type Stats struct {
	Total   int
	Applied int
	Skipped int
	Failed  int
	Windows int
}

// Replayer replays typed hook events. Input must be in chain order.
type Replayer struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	reserves     map[string]amm.Reserves
	accumulators map[string]*Accumulator
	poolSeen     map[string]model.Pool
	batch        []model.PriceWindowMetrics
	pools        []model.Pool
	stats        Stats
	maxTs        uint64
}

func NewReplayer(cfg Config, sink Sink, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Replayer{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		reserves:     make(map[string]amm.Reserves),
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]model.Pool),
	}
}

// Run replays a typed events JSONL file. Events at or before the resume
// point still move reserves but produce no metrics.
func (r *Replayer) Run(ctx context.Context, inputPath string) (Stats, error) {
	if r.sink == nil {
		return Stats{}, fmt.Errorf("sink is nil")
	}
	if r.cfg.WindowSeconds == 0 {
		return Stats{}, fmt.Errorf("window seconds must be > 0")
	}

	startTs, err := r.loadStartTimestamp(ctx)
	if err != nil {
		return Stats{}, err
	}
	r.maxTs = startTs

	err = storage.ScanJSONL(inputPath, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.stats.Total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			r.stats.Failed++
			r.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}
		return r.process(ctx, record, record.Timestamp > startTs)
	})
	if err != nil {
		return r.stats, err
	}

	for poolID, acc := range r.accumulators {
		if err := r.closeWindow(acc, r.reserves[poolID]); err != nil {
			return r.stats, err
		}
	}
	r.accumulators = make(map[string]*Accumulator)

	if err := r.flush(ctx); err != nil {
		return r.stats, err
	}
	r.cfg.RecomputeFrom = r.maxTs
	if err := r.saveState(ctx); err != nil {
		return r.stats, err
	}

	r.logger.Info("replay complete",
		zap.Int("total", r.stats.Total),
		zap.Int("applied", r.stats.Applied),
		zap.Int("skipped", r.stats.Skipped),
		zap.Int("failed", r.stats.Failed),
		zap.Int("windows", r.stats.Windows),
	)
	return r.stats, nil
}

// Reserves returns the replayed reserves of a pool.
func (r *Replayer) Reserves(poolID string) (amm.Reserves, bool) {
	res, ok := r.reserves[strings.ToLower(poolID)]
	return res, ok
}

func (r *Replayer) process(ctx context.Context, record model.TypedEventRecord, counted bool) error {
	poolID := strings.ToLower(record.PoolID)
	if poolID == "" {
		r.stats.Failed++
		r.logger.Warn("typed event without pool id", zap.String("tx", record.TxHash))
		return nil
	}

	current, ok := r.reserves[poolID]
	if !ok {
		current = amm.Reserves{Reserve0: big.NewInt(0), Reserve1: big.NewInt(0)}
	}

	next, track, err := r.apply(record, current)
	if err != nil {
		r.stats.Failed++
		r.logger.Warn("replay event", zap.Error(err), zap.String("pool_id", poolID), zap.String("event", record.EventName), zap.String("tx", record.TxHash))
		return nil
	}
	r.reserves[poolID] = next

	if !counted {
		r.stats.Skipped++
		return nil
	}

	// Windows only open for events that applied; the previous window closes
	// on the reserves this event started from.
	windowStart := record.Timestamp - record.Timestamp%r.cfg.WindowSeconds
	acc := r.accumulators[poolID]
	if acc != nil && acc.WindowStart != windowStart {
		if err := r.closeWindow(acc, current); err != nil {
			return err
		}
		acc = nil
	}
	if acc == nil {
		acc = NewAccumulator(record.ChainID, poolID, windowStart, windowStart+r.cfg.WindowSeconds, current)
		r.accumulators[poolID] = acc
	}
	track(acc)
	r.stats.Applied++
	r.registerPool(record, poolID)
	if record.Timestamp > r.maxTs {
		r.maxTs = record.Timestamp
	}

	if len(r.batch) >= r.cfg.BatchSize {
		if err := r.flush(ctx); err != nil {
			return err
		}
		if err := r.saveState(ctx); err != nil {
			return err
		}
	}
	return nil
}

// apply returns the reserves after record and a func that books its activity
// into a window. Nothing is booked when apply fails.
func (r *Replayer) apply(record model.TypedEventRecord, current amm.Reserves) (amm.Reserves, func(*Accumulator), error) {
	switch record.EventName {
	case hook.EventLiquidityAdded:
		data, err := record.LiquidityAdded()
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		amount0, err := parseBigInt(data.Amount0)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		amount1, err := parseBigInt(data.Amount1)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		next, err := amm.AddLiquidity(current, amount0, amount1)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		return next, func(acc *Accumulator) {
			acc.addLiquidity(record.BlockNumber, amount0, amount1)
		}, nil

	case hook.EventSwapExecuted:
		data, err := record.SwapExecuted()
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		amountIn, err := parseBigInt(data.AmountIn)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		amountOut, err := parseBigInt(data.AmountOut)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		quote, err := current.Quote(amountIn, data.ZeroForOne)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		next, err := amm.ApplyExecutedSwap(current, amountIn, amountOut, data.ZeroForOne)
		if err != nil {
			return amm.Reserves{}, nil, err
		}
		drifted := quote.Cmp(amountOut) != 0
		return next, func(acc *Accumulator) {
			acc.addSwap(record.BlockNumber, data.ZeroForOne, amountIn, amountOut, drifted)
		}, nil

	default:
		return amm.Reserves{}, nil, fmt.Errorf("unsupported event: %s", record.EventName)
	}
}

func (r *Replayer) closeWindow(acc *Accumulator, closing amm.Reserves) error {
	if acc == nil {
		return nil
	}
	metrics, err := acc.Metrics(r.cfg.WindowSeconds, closing)
	if err != nil {
		return err
	}
	r.batch = append(r.batch, metrics)
	r.stats.Windows++
	return nil
}

func (r *Replayer) registerPool(record model.TypedEventRecord, poolID string) {
	existing, ok := r.poolSeen[poolID]
	if ok && existing.FirstSeenBlock <= record.BlockNumber {
		return
	}
	pool := model.Pool{
		ChainID:        record.ChainID,
		PoolID:         poolID,
		Hook:           record.Address,
		FirstSeenBlock: record.BlockNumber,
		FirstSeenTime:  record.Timestamp,
	}
	r.poolSeen[poolID] = pool
	r.pools = append(r.pools, pool)
}

func (r *Replayer) flush(ctx context.Context) error {
	if len(r.pools) > 0 {
		if err := r.sink.UpsertPools(ctx, r.pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
		r.pools = r.pools[:0]
	}
	if len(r.batch) > 0 {
		if err := r.sink.UpsertPriceWindowMetrics(ctx, r.batch); err != nil {
			return fmt.Errorf("upsert window metrics: %w", err)
		}
		r.batch = r.batch[:0]
	}
	return nil
}

func (r *Replayer) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if r.cfg.RecomputeFrom > 0 {
		return r.cfg.RecomputeFrom - 1, nil
	}
	if r.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := r.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records the newest timestamp whose windows are all closed.
func (r *Replayer) saveState(ctx context.Context) error {
	if r.cfg.StateStore == nil {
		return nil
	}
	if len(r.accumulators) == 0 {
		return r.cfg.StateStore.Save(ctx, r.cfg.RecomputeFrom)
	}

	var safeTs uint64
	for _, acc := range r.accumulators {
		if safeTs == 0 || acc.WindowStart < safeTs {
			safeTs = acc.WindowStart
		}
	}
	if safeTs > 0 {
		safeTs--
	}
	return r.cfg.StateStore.Save(ctx, safeTs)
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
