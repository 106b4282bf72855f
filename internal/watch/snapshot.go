package watch

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"predictionScope/internal/amm"
	"predictionScope/internal/hook"
	"predictionScope/internal/model"
)

// Observation is one poll result: the stored snapshot plus the numeric values
// behind it.
type Observation struct {
	Snapshot model.PoolSnapshot
	Reserves amm.Reserves
	// Price0 and Price1 are recomputed from reserves, in [0, 1].
	Price0 decimal.Decimal
	Price1 decimal.Decimal
	// HookPrice0 and HookPrice1 are the hook's percentages scaled to [0, 1].
	HookPrice0 decimal.Decimal
	HookPrice1 decimal.Decimal
}

// Head identifies the block a poll was pinned to.
type Head struct {
	ChainID     uint64
	BlockNumber uint64
	Timestamp   uint64
}

// BuildObservation recomputes prices from the hook's reserves and flags
// drift when the engine's price0 percentage differs from the hook's by more
// than tolerance percentage points.
func BuildObservation(head Head, poolID common.Hash, hookAddr common.Address, info hook.PoolInfo, tolerance decimal.Decimal) (Observation, error) {
	reserves, err := info.Reserves()
	if err != nil {
		return Observation{}, fmt.Errorf("pool reserves: %w", err)
	}
	price0, price1, err := amm.Price(reserves.Reserve0, reserves.Reserve1)
	if err != nil {
		return Observation{}, err
	}
	hookPrice0, err := amm.PercentToPrice(orZero(info.Price0))
	if err != nil {
		return Observation{}, fmt.Errorf("hook price0: %w", err)
	}
	hookPrice1, err := amm.PercentToPrice(orZero(info.Price1))
	if err != nil {
		return Observation{}, fmt.Errorf("hook price1: %w", err)
	}

	drift := amm.PriceToPercent(price0.Sub(hookPrice0)).Abs().GreaterThan(tolerance)
	sumMismatch := info.Liquidity != nil && info.Liquidity.Cmp(reserves.Total()) != 0

	return Observation{
		Snapshot: model.PoolSnapshot{
			ChainID:     head.ChainID,
			PoolID:      poolID.Hex(),
			Hook:        hookAddr.Hex(),
			BlockNumber: head.BlockNumber,
			Timestamp:   head.Timestamp,
			Liquidity:   orZero(info.Liquidity).String(),
			Reserve0:    reserves.Reserve0.String(),
			Reserve1:    reserves.Reserve1.String(),
			HookPrice0:  orZero(info.Price0).String(),
			HookPrice1:  orZero(info.Price1).String(),
			Price0:      price0.String(),
			Price1:      price1.String(),
			Drift:       drift,
			SumMismatch: sumMismatch,
			ObservedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		},
		Reserves:   reserves,
		Price0:     price0,
		Price1:     price1,
		HookPrice0: hookPrice0,
		HookPrice1: hookPrice1,
	}, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
