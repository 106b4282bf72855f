package model

import "fmt"

// LogRecord is the normalized representation of a hook log for storage.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at"`
}

// Key identifies the log within its chain.
func (lr LogRecord) Key() string {
	return fmt.Sprintf("%d:%d:%s:%d", lr.ChainID, lr.BlockNumber, lr.TxHash, lr.LogIndex)
}

// Header builds the typed event header for this log.
func (lr LogRecord) Header(eventName, poolID string) EventHeader {
	return EventHeader{
		ChainID:     lr.ChainID,
		BlockNumber: lr.BlockNumber,
		BlockHash:   lr.BlockHash,
		TxHash:      lr.TxHash,
		LogIndex:    lr.LogIndex,
		Address:     lr.Address,
		EventName:   eventName,
		PoolID:      poolID,
		Timestamp:   lr.Timestamp,
	}
}

// Topic0 returns the event signature topic, or "" for anonymous logs.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
