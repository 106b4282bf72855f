package model

// PoolSnapshot is one observation of a pool's state.
type PoolSnapshot struct {
	ChainID     uint64 `json:"chain_id"`
	PoolID      string `json:"pool_id"`
	Hook        string `json:"hook"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	Liquidity   string `json:"liquidity"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	// HookPrice0/1 are the hook's integer percentages.
	HookPrice0 string `json:"hook_price0"`
	HookPrice1 string `json:"hook_price1"`
	// Price0/1 are recomputed from the reserves, in [0, 1].
	Price0 string `json:"price0"`
	Price1 string `json:"price1"`
	Drift  bool   `json:"drift"`
	// SumMismatch is set when reserve0 + reserve1 differs from liquidity.
	SumMismatch bool   `json:"sum_mismatch"`
	ObservedAt  string `json:"observed_at"`
}

// Pool is a hook pool as first seen in the event stream. Currency0/1, Fee
// and TickSpacing stay empty when only the pool id is known.
type Pool struct {
	ChainID        uint64 `json:"chain_id"`
	PoolID         string `json:"pool_id"`
	Hook           string `json:"hook"`
	Currency0      string `json:"currency0,omitempty"`
	Currency1      string `json:"currency1,omitempty"`
	Fee            uint32 `json:"fee,omitempty"`
	TickSpacing    int32  `json:"tick_spacing,omitempty"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
	FirstSeenTime  uint64 `json:"first_seen_time"`
}
