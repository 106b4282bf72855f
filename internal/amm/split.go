package amm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ImpliedProbabilitySplit returns each balance's share of the combined
// holding as a percentage (0-100). It describes a holder's position, not pool
// pricing. Two zero balances yield (0, 0).
func ImpliedProbabilitySplit(balanceYes, balanceNo *big.Int) (decimal.Decimal, decimal.Decimal, error) {
	shareYes, shareNo, err := Price(balanceYes, balanceNo)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return shareYes.Mul(hundred), shareNo.Mul(hundred), nil
}

// PriceToPercent converts a [0, 1] price into the 0-100 scale the hook reports.
func PriceToPercent(price decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred)
}

// PercentToPrice converts a 0-100 hook price into the [0, 1] scale.
func PercentToPrice(percent *big.Int) (decimal.Decimal, error) {
	if err := checkNonNegative("percent", percent); err != nil {
		return decimal.Zero, err
	}
	value := decimal.NewFromBigInt(percent, 0)
	if value.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("percent %s above 100: %w", percent, ErrInvalidArgument)
	}
	return value.Div(hundred), nil
}
