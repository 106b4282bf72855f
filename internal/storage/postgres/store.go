package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"predictionScope/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pools, snapshots and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables used by the watcher and replay.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool keys.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_id, hook, currency0, currency1, fee, tick_spacing, first_seen_block, first_seen_time, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (chain_id, pool_id)
			DO UPDATE SET
				hook = EXCLUDED.hook,
				currency0 = CASE WHEN EXCLUDED.currency0 = '' THEN pools.currency0 ELSE EXCLUDED.currency0 END,
				currency1 = CASE WHEN EXCLUDED.currency1 = '' THEN pools.currency1 ELSE EXCLUDED.currency1 END,
				first_seen_time = CASE WHEN EXCLUDED.first_seen_block < pools.first_seen_block
					THEN EXCLUDED.first_seen_time ELSE pools.first_seen_time END,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.PoolID,
			pool.Hook,
			pool.Currency0,
			pool.Currency1,
			int64(pool.Fee),
			pool.TickSpacing,
			int64(pool.FirstSeenBlock),
			int64(pool.FirstSeenTime),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// PutSnapshots inserts watcher snapshots; a repeated block for the same pool
// keeps the latest observation.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		observedAt, err := time.Parse(time.RFC3339Nano, snap.ObservedAt)
		if err != nil {
			observedAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_id, block_number, block_ts, hook, liquidity, reserve0, reserve1,
				hook_price0, hook_price1, price0, price1, drift, sum_mismatch, observed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (chain_id, pool_id, block_number)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				hook_price0 = EXCLUDED.hook_price0,
				hook_price1 = EXCLUDED.hook_price1,
				price0 = EXCLUDED.price0,
				price1 = EXCLUDED.price1,
				drift = EXCLUDED.drift,
				sum_mismatch = EXCLUDED.sum_mismatch,
				observed_at = EXCLUDED.observed_at
		`,
			int64(snap.ChainID),
			snap.PoolID,
			int64(snap.BlockNumber),
			int64(snap.Timestamp),
			snap.Hook,
			snap.Liquidity,
			snap.Reserve0,
			snap.Reserve1,
			snap.HookPrice0,
			snap.HookPrice1,
			snap.Price0,
			snap.Price1,
			snap.Drift,
			snap.SumMismatch,
			observedAt,
		)
	}
	return s.sendBatch(ctx, batch, len(snapshots))
}

// UpsertPriceWindowMetrics inserts or updates replayed window metrics.
func (s *Store) UpsertPriceWindowMetrics(ctx context.Context, metrics []model.PriceWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO price_window_metrics (
				chain_id, pool_id, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume0, volume1, liquidity_adds, liquidity0, liquidity1,
				reserve0, reserve1, open_price0, close_price0, quote_drift, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (chain_id, pool_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				liquidity_adds = EXCLUDED.liquidity_adds,
				liquidity0 = EXCLUDED.liquidity0,
				liquidity1 = EXCLUDED.liquidity1,
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				open_price0 = EXCLUDED.open_price0,
				close_price0 = EXCLUDED.close_price0,
				quote_drift = EXCLUDED.quote_drift,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.PoolID,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.Volume0,
			m.Volume1,
			int64(m.LiquidityAdds),
			m.Liquidity0,
			m.Liquidity1,
			m.Reserve0,
			m.Reserve1,
			m.OpenPrice0,
			m.ClosePrice0,
			int64(m.QuoteDrift),
		)
	}
	return s.sendBatch(ctx, batch, len(metrics))
}

// UpsertWrappedTokens records resolved wrapper addresses.
func (s *Store) UpsertWrappedTokens(ctx context.Context, tokens []model.WrappedToken) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO wrapped_tokens (
				chain_id, factory, multi_token, token_id, metadata, name, symbol, decimals, wrapper, deployed, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
			ON CONFLICT (chain_id, factory, multi_token, token_id, metadata)
			DO UPDATE SET
				wrapper = EXCLUDED.wrapper,
				deployed = EXCLUDED.deployed,
				updated_at = now()
		`,
			int64(token.ChainID),
			token.Factory,
			token.MultiToken,
			token.TokenID,
			token.Metadata,
			token.Name,
			token.Symbol,
			int16(token.Decimals),
			token.Wrapper,
			token.Deployed,
		)
	}
	return s.sendBatch(ctx, batch, len(tokens))
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
