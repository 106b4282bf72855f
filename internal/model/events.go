package model

// LiquidityAddedData is the decoded hook LiquidityAdded event payload.
type LiquidityAddedData struct {
	PoolID   string `json:"pool_id"`
	Provider string `json:"provider"`
	Amount0  string `json:"amount0"`
	Amount1  string `json:"amount1"`
	Shares   string `json:"shares"`
}

// SwapExecutedData is the decoded hook SwapExecuted event payload.
type SwapExecutedData struct {
	PoolID     string `json:"pool_id"`
	ZeroForOne bool   `json:"zero_for_one"`
	AmountIn   string `json:"amount_in"`
	AmountOut  string `json:"amount_out"`
}
