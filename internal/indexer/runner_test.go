package indexer

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"predictionScope/internal/hook"
	"predictionScope/internal/model"
	"predictionScope/internal/retry"
)

type fakeSource struct {
	latest     uint64
	logs       []types.Log
	failFilter int
	queries    [][2]uint64
	topics     []common.Hash
}

func (f *fakeSource) GetChainID(context.Context) (*big.Int, error) {
	return big.NewInt(137), nil
}

func (f *fakeSource) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeSource) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1700000000 + number, nil
}

func (f *fakeSource) FilterLogs(_ context.Context, from, to uint64, _ []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	if f.failFilter > 0 {
		f.failFilter--
		return nil, errors.New("rpc timeout")
	}
	f.queries = append(f.queries, [2]uint64{from, to})
	f.topics = topic0
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			out = append(out, log)
		}
	}
	return out, nil
}

type memorySink struct {
	records []model.LogRecord
}

func (m *memorySink) PutLogBatch(logs []model.LogRecord) error {
	m.records = append(m.records, logs...)
	return nil
}

func hookLog(block uint64, index uint) types.Log {
	return types.Log{
		Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Topics:      []common.Hash{common.HexToHash("0x01")},
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block)),
		Index:       index,
	}
}

func TestRunnerIndexesAndCheckpoints(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{
		latest: 105,
		logs: []types.Log{
			hookLog(100, 0),
			hookLog(100, 0),
			hookLog(103, 1),
			{BlockNumber: 104, Removed: true},
		},
		failFilter: 1,
	}
	sink := &memorySink{}
	cfg := RunConfig{
		FromBlock:         100,
		Addresses:         []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")},
		BatchSize:         3,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		Retry:             retry.Policy{MaxRetries: 2, Backoff: time.Millisecond},
	}

	require.NoError(t, NewRunner(cfg, source, sink, zap.NewNop()).Run(context.Background()))
	require.Equal(t, [][2]uint64{{100, 102}, {103, 105}}, source.queries)
	require.Len(t, sink.records, 2)
	require.Equal(t, uint64(137), sink.records[0].ChainID)
	require.Equal(t, uint64(1700000103), sink.records[1].Timestamp)

	wantTopics, err := hook.EventTopics()
	require.NoError(t, err)
	require.Equal(t, wantTopics, source.topics)

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load(137)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(105), cp.LastProcessedBlock)

	// A second run resumes after the checkpoint and finds nothing new.
	source.queries = nil
	require.NoError(t, NewRunner(cfg, source, sink, zap.NewNop()).Run(context.Background()))
	require.Empty(t, source.queries)
}

func TestRunnerRequiresAddress(t *testing.T) {
	err := NewRunner(RunConfig{BatchSize: 10}, &fakeSource{}, &memorySink{}, nil).Run(context.Background())
	require.Error(t, err)
}

func TestCheckpointDisabled(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"), false)
	require.NoError(t, store.Save(137, 10))
	_, ok, err := store.Load(137)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckpointChainMismatch(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "nested", "cp.json"), true)
	require.NoError(t, store.Save(137, 42))

	cp, ok, err := store.Load(137)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), cp.LastProcessedBlock)

	_, _, err = store.Load(1)
	require.Error(t, err)
}

func TestRunnerStaysBehindHead(t *testing.T) {
	source := &fakeSource{latest: 120, logs: []types.Log{hookLog(105, 0), hookLog(115, 0)}}
	sink := &memorySink{}
	cfg := RunConfig{
		FromBlock:     100,
		Addresses:     []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")},
		BatchSize:     50,
		Confirmations: 10,
	}

	require.NoError(t, NewRunner(cfg, source, sink, zap.NewNop()).Run(context.Background()))
	require.Equal(t, [][2]uint64{{100, 110}}, source.queries)
	require.Len(t, sink.records, 1)
	require.Equal(t, uint64(105), sink.records[0].BlockNumber)

	// A chain shorter than the depth is not an error.
	source = &fakeSource{latest: 5}
	cfg.FromBlock = 0
	require.NoError(t, NewRunner(cfg, source, &memorySink{}, nil).Run(context.Background()))
	require.Empty(t, source.queries)
}

func TestToLogRecord(t *testing.T) {
	log := hookLog(7, 3)
	log.Data = []byte{0xde, 0xad}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	record := toLogRecord(137, log, 1700000007, at)
	require.Equal(t, "0xdead", record.Data)
	require.Equal(t, uint64(3), record.LogIndex)
	require.Equal(t, []string{common.HexToHash("0x01").Hex()}, record.Topics)
	require.Equal(t, "2024-01-02T02:04:05Z", record.IngestedAt)
}
