package amm

import (
	"fmt"
	"math/big"
)

// Reserves holds the two sides of a constant-sum pool in the smallest token unit.
// Their sum is the pool's total liquidity and only changes through
// AddLiquidity.
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// NewReserves validates and copies the given reserves.
func NewReserves(reserve0, reserve1 *big.Int) (Reserves, error) {
	if err := checkNonNegative("reserve0", reserve0); err != nil {
		return Reserves{}, err
	}
	if err := checkNonNegative("reserve1", reserve1); err != nil {
		return Reserves{}, err
	}
	return Reserves{
		Reserve0: new(big.Int).Set(reserve0),
		Reserve1: new(big.Int).Set(reserve1),
	}, nil
}

// Total returns reserve0 + reserve1.
func (r Reserves) Total() *big.Int {
	return new(big.Int).Add(orZero(r.Reserve0), orZero(r.Reserve1))
}

// IsEmpty reports whether the pool holds no liquidity.
func (r Reserves) IsEmpty() bool {
	return r.Total().Sign() == 0
}

// Oriented returns (reserveIn, reserveOut) for a swap direction.
func (r Reserves) Oriented(zeroForOne bool) (*big.Int, *big.Int) {
	if zeroForOne {
		return orZero(r.Reserve0), orZero(r.Reserve1)
	}
	return orZero(r.Reserve1), orZero(r.Reserve0)
}

// Quote orients the reserves and calls QuoteSwap.
func (r Reserves) Quote(amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	reserveIn, reserveOut := r.Oriented(zeroForOne)
	return QuoteSwap(reserveIn, reserveOut, amountIn)
}

func (r Reserves) String() string {
	return fmt.Sprintf("(%s, %s)", orZero(r.Reserve0), orZero(r.Reserve1))
}

func (r Reserves) validate() error {
	if err := checkNonNegative("reserve0", r.Reserve0); err != nil {
		return err
	}
	return checkNonNegative("reserve1", r.Reserve1)
}

func checkNonNegative(name string, value *big.Int) error {
	if value == nil {
		return fmt.Errorf("%s is nil: %w", name, ErrInvalidArgument)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("%s is negative (%s): %w", name, value, ErrInvalidArgument)
	}
	return nil
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
