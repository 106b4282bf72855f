package replay

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"predictionScope/internal/amm"
	"predictionScope/internal/model"
)

// Accumulator collects one pool's activity within one window.
type Accumulator struct {
	ChainID       uint64
	PoolID        string
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	Volume0       *big.Int
	Volume1       *big.Int
	LiquidityAdds uint64
	Liquidity0    *big.Int
	Liquidity1    *big.Int
	QuoteDrift    uint64
	OpenPrice0    decimal.Decimal
	FirstBlock    uint64
}

// NewAccumulator opens a window whose opening price comes from open.
func NewAccumulator(chainID uint64, poolID string, windowStart, windowEnd uint64, open amm.Reserves) *Accumulator {
	price0, _, err := amm.Price(open.Reserve0, open.Reserve1)
	if err != nil {
		price0 = decimal.Zero
	}
	return &Accumulator{
		ChainID:     chainID,
		PoolID:      poolID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Liquidity0:  big.NewInt(0),
		Liquidity1:  big.NewInt(0),
		OpenPrice0:  price0,
	}
}

func (a *Accumulator) addLiquidity(blockNumber uint64, amount0, amount1 *big.Int) {
	a.touch(blockNumber)
	a.LiquidityAdds++
	a.Liquidity0.Add(a.Liquidity0, amount0)
	a.Liquidity1.Add(a.Liquidity1, amount1)
}

func (a *Accumulator) addSwap(blockNumber uint64, zeroForOne bool, amountIn, amountOut *big.Int, drifted bool) {
	a.touch(blockNumber)
	a.SwapCount++
	if zeroForOne {
		a.Volume0.Add(a.Volume0, amountIn)
		a.Volume1.Add(a.Volume1, amountOut)
	} else {
		a.Volume1.Add(a.Volume1, amountIn)
		a.Volume0.Add(a.Volume0, amountOut)
	}
	if drifted {
		a.QuoteDrift++
	}
}

func (a *Accumulator) touch(blockNumber uint64) {
	if a.FirstBlock == 0 || blockNumber < a.FirstBlock {
		a.FirstBlock = blockNumber
	}
}

// Metrics closes the window against the pool's reserves at its end.
func (a *Accumulator) Metrics(windowSeconds uint64, closing amm.Reserves) (model.PriceWindowMetrics, error) {
	price0, _, err := amm.Price(closing.Reserve0, closing.Reserve1)
	if err != nil {
		return model.PriceWindowMetrics{}, fmt.Errorf("closing price: %w", err)
	}
	return model.PriceWindowMetrics{
		ChainID:        a.ChainID,
		PoolID:         a.PoolID,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:      a.SwapCount,
		Volume0:        a.Volume0.String(),
		Volume1:        a.Volume1.String(),
		LiquidityAdds:  a.LiquidityAdds,
		Liquidity0:     a.Liquidity0.String(),
		Liquidity1:     a.Liquidity1.String(),
		Reserve0:       closing.Reserve0.String(),
		Reserve1:       closing.Reserve1.String(),
		OpenPrice0:     a.OpenPrice0.String(),
		ClosePrice0:    price0.String(),
		QuoteDrift:     a.QuoteDrift,
	}, nil
}
