package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogRecordKey(t *testing.T) {
	a := LogRecord{ChainID: 137, BlockNumber: 10, TxHash: "0xaa", LogIndex: 2}
	b := a
	b.LogIndex = 3

	require.Equal(t, "137:10:0xaa:2", a.Key())
	require.NotEqual(t, a.Key(), b.Key())
}

func TestLogRecordTopic0(t *testing.T) {
	require.Equal(t, "0x01", LogRecord{Topics: []string{"0x01", "0x02"}}.Topic0())
	require.Empty(t, LogRecord{}.Topic0())
}

func TestLogRecordHeader(t *testing.T) {
	record := LogRecord{
		ChainID:     137,
		BlockNumber: 36000000,
		BlockHash:   "0xb1",
		TxHash:      "0xt1",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x4a8AE4911c363f2669215fb5b330132EA41a532c",
		Timestamp:   1700000000,
	}

	require.Equal(t, EventHeader{
		ChainID:     137,
		BlockNumber: 36000000,
		BlockHash:   "0xb1",
		TxHash:      "0xt1",
		LogIndex:    12,
		Address:     "0x4a8AE4911c363f2669215fb5b330132EA41a532c",
		EventName:   EventSwapExecuted,
		PoolID:      "0xpool",
		Timestamp:   1700000000,
	}, record.Header(EventSwapExecuted, "0xpool"))
}
