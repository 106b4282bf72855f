package watch

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"predictionScope/internal/hook"
	"predictionScope/internal/model"
	"predictionScope/internal/pool"
	"predictionScope/internal/retry"
)

type fakePools struct {
	info   hook.PoolInfo
	fails  int
	blocks []*big.Int
}

func (f *fakePools) PoolInfo(_ context.Context, _ pool.Key, block *big.Int) (hook.PoolInfo, error) {
	if f.fails > 0 {
		f.fails--
		return hook.PoolInfo{}, errors.New("rpc timeout")
	}
	f.blocks = append(f.blocks, block)
	return f.info, nil
}

type fakeHead struct{}

func (fakeHead) GetChainID(context.Context) (*big.Int, error) { return big.NewInt(137), nil }
func (fakeHead) LatestBlockNumber(context.Context) (uint64, error) { return 500, nil }
func (fakeHead) BlockTimestamp(context.Context, uint64) (uint64, error) { return 1700000000, nil }

type memorySink struct {
	snapshots []model.PoolSnapshot
}

func (m *memorySink) PutSnapshots(_ context.Context, snapshots []model.PoolSnapshot) error {
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

type fakeConn struct {
	msgs []*nats.Msg
}

func (f *fakeConn) PublishMsg(msg *nats.Msg) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func testPoolKey(t *testing.T) pool.Key {
	t.Helper()
	key, err := pool.NewKey(
		common.HexToAddress("0x91BdE82669D279B37a5F4Fe44c0D4b06054577B1"),
		common.HexToAddress("0xcDb79f7f9D387cd034e87abAc34e222F146fc3C5"),
		3000, 60, testHook,
	)
	require.NoError(t, err)
	return key
}

func TestWatcherPollFansOut(t *testing.T) {
	key := testPoolKey(t)
	pools := &fakePools{info: poolInfo(1700, 300, 80, 20), fails: 1}
	sink := &memorySink{}
	conn := &fakeConn{}
	metrics := NewMetrics()

	w, err := New(Config{
		Interval:  time.Second,
		Tolerance: decimal.NewFromInt(1),
		Retry:     retry.Policy{MaxRetries: 2, Backoff: time.Millisecond},
	}, key, pools, fakeHead{}, zap.NewNop(),
		WithSinks(sink),
		WithPublisher(NewNATSPublisher(conn, "pool")),
		WithMetrics(metrics),
	)
	require.NoError(t, err)

	require.NoError(t, w.Run(context.Background(), true))

	require.Len(t, pools.blocks, 1)
	require.Equal(t, int64(500), pools.blocks[0].Int64())

	require.Len(t, sink.snapshots, 1)
	snap := sink.snapshots[0]
	require.Equal(t, uint64(137), snap.ChainID)
	require.Equal(t, uint64(1700000000), snap.Timestamp)
	require.True(t, snap.Drift)

	poolID, err := key.ID()
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)
	require.Equal(t, Subject("pool", 137, poolID.Hex()), conn.msgs[0].Subject)

	var published model.PoolSnapshot
	require.NoError(t, json.Unmarshal(conn.msgs[0].Data, &published))
	require.Equal(t, snap.Reserve0, published.Reserve0)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "prediction_scope_pool_price_drift")
	require.Contains(t, string(body), `prediction_scope_watch_polls_total{pool_id="`+poolID.Hex()+`",status="ok"} 1`)
	require.Contains(t, string(body), `prediction_scope_pool_price{pool_id="`+poolID.Hex()+`",side="0",source="hook"} 0.8`)
	require.Contains(t, string(body), `prediction_scope_pool_price{pool_id="`+poolID.Hex()+`",side="1",source="hook"} 0.2`)
}

func TestWatcherPollFailureCounted(t *testing.T) {
	pools := &fakePools{fails: 10}
	metrics := NewMetrics()
	w, err := New(Config{Interval: time.Second, Retry: retry.Policy{MaxRetries: 1, Backoff: time.Millisecond}},
		testPoolKey(t), pools, fakeHead{}, nil, WithMetrics(metrics))
	require.NoError(t, err)

	_, err = w.Poll(context.Background())
	require.Error(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), `status="error"} 1`)
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	pools := &fakePools{info: poolInfo(1, 1, 50, 50)}
	w, err := New(Config{Interval: time.Millisecond}, testPoolKey(t), pools, fakeHead{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx, false))
	require.NotEmpty(t, pools.blocks)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{}, testPoolKey(t), &fakePools{}, fakeHead{}, nil)
	require.Error(t, err)
	_, err = New(Config{Interval: time.Second, Tolerance: decimal.NewFromInt(-1)}, testPoolKey(t), &fakePools{}, fakeHead{}, nil)
	require.Error(t, err)
	_, err = New(Config{Interval: time.Second}, testPoolKey(t), nil, fakeHead{}, nil)
	require.Error(t, err)
}

func TestSubject(t *testing.T) {
	require.Equal(t, "pool.137.0xabc", Subject("pool", 137, "0xABC"))
	require.Equal(t, "pool.1.0xabc", Subject("", 1, "0xabc"))
	require.Equal(t, "scope.pool.1.0xabc", Subject("scope.pool.", 1, "0xabc"))
}
