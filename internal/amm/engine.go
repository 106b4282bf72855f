// Package amm implements the constant-sum pricing model used by the
// prediction hook: reserve0 + reserve1 = k, prices are each side's share of k,
// and a swap moves units 1:1 from one side to the other.
//
// Every function is a pure computation over its arguments and is safe for
// concurrent use.
package amm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places carried by derived prices.
const PriceScale = 18

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// SwapResult is the outcome of ApplySwap.
type SwapResult struct {
	Reserves Reserves
	// AmountIn is the input actually absorbed by the pool. It is below the
	// requested input only when the output side was exhausted.
	AmountIn  *big.Int
	AmountOut *big.Int
	Capped    bool
}

// Price returns each side's share of total liquidity as a value in [0, 1].
// An empty pool yields (0, 0) without error. price1 is derived as 1 - price0,
// so the pair always sums to exactly one.
func Price(reserve0, reserve1 *big.Int) (decimal.Decimal, decimal.Decimal, error) {
	if err := checkNonNegative("reserve0", reserve0); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := checkNonNegative("reserve1", reserve1); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	total := new(big.Int).Add(reserve0, reserve1)
	if total.Sign() == 0 {
		return decimal.Zero, decimal.Zero, nil
	}

	price0 := decimal.NewFromBigInt(reserve0, 0).DivRound(decimal.NewFromBigInt(total, 0), PriceScale)
	return price0, one.Sub(price0), nil
}

// QuoteSwap returns the output of swapping amountIn against reserveOut.
//
// This is the best-case 1:1 model: output equals input, capped at the
// opposite reserve. It ignores any fee or rounding the on-chain hook applies
// and must not be used as a transaction-critical quote without checking it
// against the hook.
func QuoteSwap(reserveIn, reserveOut, amountIn *big.Int) (*big.Int, error) {
	if err := checkNonNegative("reserveIn", reserveIn); err != nil {
		return nil, err
	}
	if err := checkNonNegative("reserveOut", reserveOut); err != nil {
		return nil, err
	}
	if err := checkNonNegative("amountIn", amountIn); err != nil {
		return nil, err
	}

	if amountIn.Cmp(reserveOut) > 0 {
		return new(big.Int).Set(reserveOut), nil
	}
	return new(big.Int).Set(amountIn), nil
}

// ApplySwap moves amountIn into the input side and the quoted output out of
// the opposite side. The reserve sum is preserved exactly: when the output
// side cannot cover amountIn, only the covered part of the input is absorbed
// and the result is marked Capped.
func ApplySwap(reserves Reserves, amountIn *big.Int, zeroForOne bool) (SwapResult, error) {
	if err := reserves.validate(); err != nil {
		return SwapResult{}, err
	}
	amountOut, err := reserves.Quote(amountIn, zeroForOne)
	if err != nil {
		return SwapResult{}, err
	}

	next := Reserves{
		Reserve0: new(big.Int).Set(reserves.Reserve0),
		Reserve1: new(big.Int).Set(reserves.Reserve1),
	}
	if zeroForOne {
		next.Reserve0.Add(next.Reserve0, amountOut)
		next.Reserve1.Sub(next.Reserve1, amountOut)
	} else {
		next.Reserve1.Add(next.Reserve1, amountOut)
		next.Reserve0.Sub(next.Reserve0, amountOut)
	}

	return SwapResult{
		Reserves:  next,
		AmountIn:  new(big.Int).Set(amountOut),
		AmountOut: amountOut,
		Capped:    amountOut.Cmp(amountIn) < 0,
	}, nil
}

// ApplyExecutedSwap replays a swap whose amounts were settled on chain.
// Unlike ApplySwap it trusts the given amounts, so the sum changes by
// amountIn - amountOut when the hook charged a fee.
func ApplyExecutedSwap(reserves Reserves, amountIn, amountOut *big.Int, zeroForOne bool) (Reserves, error) {
	if err := reserves.validate(); err != nil {
		return Reserves{}, err
	}
	if err := checkNonNegative("amountIn", amountIn); err != nil {
		return Reserves{}, err
	}
	if err := checkNonNegative("amountOut", amountOut); err != nil {
		return Reserves{}, err
	}

	_, reserveOut := reserves.Oriented(zeroForOne)
	if amountOut.Cmp(reserveOut) > 0 {
		return Reserves{}, fmt.Errorf("amountOut %s exceeds reserve %s: %w", amountOut, reserveOut, ErrDepletedReserve)
	}

	next := Reserves{
		Reserve0: new(big.Int).Set(reserves.Reserve0),
		Reserve1: new(big.Int).Set(reserves.Reserve1),
	}
	if zeroForOne {
		next.Reserve0.Add(next.Reserve0, amountIn)
		next.Reserve1.Sub(next.Reserve1, amountOut)
	} else {
		next.Reserve1.Add(next.Reserve1, amountIn)
		next.Reserve0.Sub(next.Reserve0, amountOut)
	}
	return next, nil
}

// AddLiquidity deposits amount0 and amount1 into the pool.
func AddLiquidity(reserves Reserves, amount0, amount1 *big.Int) (Reserves, error) {
	if err := reserves.validate(); err != nil {
		return Reserves{}, err
	}
	if err := checkNonNegative("amount0", amount0); err != nil {
		return Reserves{}, err
	}
	if err := checkNonNegative("amount1", amount1); err != nil {
		return Reserves{}, err
	}
	return Reserves{
		Reserve0: new(big.Int).Add(reserves.Reserve0, amount0),
		Reserve1: new(big.Int).Add(reserves.Reserve1, amount1),
	}, nil
}

// SplitLiquidity seeds a pool of total units so that side 0 is priced at
// price0Percent (0-100). Rounding leftovers go to side 1.
func SplitLiquidity(total *big.Int, price0Percent decimal.Decimal) (Reserves, error) {
	if err := checkNonNegative("total", total); err != nil {
		return Reserves{}, err
	}
	if price0Percent.IsNegative() || price0Percent.GreaterThan(hundred) {
		return Reserves{}, fmt.Errorf("price0 percent %s outside [0, 100]: %w", price0Percent, ErrInvalidArgument)
	}

	reserve0 := decimal.NewFromBigInt(total, 0).Mul(price0Percent).Div(hundred).Floor().BigInt()
	reserve1 := new(big.Int).Sub(total, reserve0)
	return Reserves{Reserve0: reserve0, Reserve1: reserve1}, nil
}
