package model

import "time"

// PriceWindowMetrics stores replayed activity for one pool window.
type PriceWindowMetrics struct {
	ChainID        uint64    `json:"chain_id"`
	PoolID         string    `json:"pool_id"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	Volume0        string    `json:"volume0"`
	Volume1        string    `json:"volume1"`
	LiquidityAdds  uint64    `json:"liquidity_adds"`
	Liquidity0     string    `json:"liquidity0"`
	Liquidity1     string    `json:"liquidity1"`
	Reserve0       string    `json:"reserve0"`
	Reserve1       string    `json:"reserve1"`
	OpenPrice0     string    `json:"open_price0"`
	ClosePrice0    string    `json:"close_price0"`
	// QuoteDrift counts swaps whose settled output differed from the 1:1 quote.
	QuoteDrift uint64 `json:"quote_drift"`
}
