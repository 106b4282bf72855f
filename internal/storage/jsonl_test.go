package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"predictionScope/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "logs.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutLogBatch([]model.LogRecord{
		{ChainID: 137, BlockNumber: 1, TxHash: "0x01"},
		{ChainID: 137, BlockNumber: 2, TxHash: "0x02"},
	}))
	require.NoError(t, store.PutLogBatch(nil))
	require.NoError(t, store.PutLogBatch([]model.LogRecord{{ChainID: 137, BlockNumber: 3}}))

	var blocks []uint64
	err := ScanJSONL(path, func(line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		blocks = append(blocks, record.BlockNumber)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, blocks)
}

func TestJsonlStorageSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutSnapshots(context.Background(), []model.PoolSnapshot{
		{PoolID: "0xabc", Reserve0: "1600", Reserve1: "400", Price0: "0.8", Price1: "0.2"},
	}))

	var got []model.PoolSnapshot
	require.NoError(t, ScanJSONL(path, func(line []byte) error {
		var snapshot model.PoolSnapshot
		if err := json.Unmarshal(line, &snapshot); err != nil {
			return err
		}
		got = append(got, snapshot)
		return nil
	}))
	require.Len(t, got, 1)
	require.Equal(t, "0.8", got[0].Price0)
}

func TestOpenJSONLTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.jsonl")

	w, err := OpenJSONL(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(map[string]int{"a": 1}))
	require.NoError(t, w.Write(map[string]int{"a": 2}))
	require.NoError(t, w.Close())

	w, err = OpenJSONL(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(map[string]int{"a": 3}))
	require.NoError(t, w.Close())

	lines := 0
	require.NoError(t, ScanJSONL(path, func([]byte) error {
		lines++
		return nil
	}))
	require.Equal(t, 1, lines)
}

func TestScanJSONLMissingFile(t *testing.T) {
	err := ScanJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), func([]byte) error { return nil })
	require.Error(t, err)
}
