package model

// EventHeader locates a decoded hook event on chain. It is shared by the
// write side (TypedEvent) and the read side (TypedEventRecord) so both keep
// the same JSON layout.
type EventHeader struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	EventName   string `json:"event_name"`
	PoolID      string `json:"pool_id"`
	Timestamp   uint64 `json:"timestamp"`
}

// TypedEvent is a decoded hook event.
type TypedEvent struct {
	EventHeader
	Decoded interface{} `json:"decoded"`
	Raw     *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
