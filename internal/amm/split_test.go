package amm

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbabilitySplitZero(t *testing.T) {
	yes, no, err := ImpliedProbabilitySplit(big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	require.True(t, yes.IsZero())
	require.True(t, no.IsZero())
}

func TestImpliedProbabilitySplit(t *testing.T) {
	yes, no, err := ImpliedProbabilitySplit(big.NewInt(300), big.NewInt(100))
	require.NoError(t, err)
	require.True(t, yes.Equal(decimal.NewFromInt(75)), yes.String())
	require.True(t, no.Equal(decimal.NewFromInt(25)), no.String())

	yes, no, err = ImpliedProbabilitySplit(big.NewInt(0), big.NewInt(9))
	require.NoError(t, err)
	require.True(t, yes.IsZero())
	require.True(t, no.Equal(decimal.NewFromInt(100)))

	_, _, err = ImpliedProbabilitySplit(big.NewInt(-3), big.NewInt(9))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPercentConversions(t *testing.T) {
	price, err := PercentToPrice(big.NewInt(80))
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("0.8")))
	require.True(t, PriceToPercent(price).Equal(decimal.NewFromInt(80)))

	_, err = PercentToPrice(big.NewInt(101))
	require.ErrorIs(t, err, ErrInvalidArgument)
}
