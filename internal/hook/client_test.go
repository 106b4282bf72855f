package hook

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"predictionScope/internal/amm"
	"predictionScope/internal/pool"
)

// fakeHook answers view calls with fixed reserves.
type fakeHook struct {
	t        *testing.T
	reserve0 *big.Int
	reserve1 *big.Int
	calls    []string
}

func (f *fakeHook) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := hookABI.ABI()
	require.NoError(f.t, err)
	method, err := parsed.MethodById(msg.Data[:4])
	require.NoError(f.t, err)
	f.calls = append(f.calls, method.Name)

	total := new(big.Int).Add(f.reserve0, f.reserve1)
	price0 := new(big.Int).Div(new(big.Int).Mul(f.reserve0, big.NewInt(100)), total)
	price1 := new(big.Int).Sub(big.NewInt(100), price0)

	switch method.Name {
	case "getPoolInfo":
		return method.Outputs.Pack(total, f.reserve0, f.reserve1, price0, price1)
	case "getReserves":
		return method.Outputs.Pack(f.reserve0, f.reserve1)
	case "getPrices":
		return method.Outputs.Pack(price0, price1)
	}
	f.t.Fatalf("unexpected method %s", method.Name)
	return nil, nil
}

func testKey(t *testing.T) pool.Key {
	t.Helper()
	key, err := pool.NewKey(
		common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		3000, 60,
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
	)
	require.NoError(t, err)
	return key
}

func TestPoolInfo(t *testing.T) {
	backend := &fakeHook{t: t, reserve0: big.NewInt(1600), reserve1: big.NewInt(400)}
	client := NewClient(common.HexToAddress("0x1111111111111111111111111111111111111111"), backend)

	info, err := client.PoolInfo(context.Background(), testKey(t), nil)
	require.NoError(t, err)
	require.Equal(t, "2000", info.Liquidity.String())
	require.Equal(t, "80", info.Price0.String())
	require.Equal(t, "20", info.Price1.String())

	reserves, err := info.Reserves()
	require.NoError(t, err)
	price0, price1, err := amm.Price(reserves.Reserve0, reserves.Reserve1)
	require.NoError(t, err)
	require.Equal(t, "0.8", price0.String())
	require.Equal(t, "0.2", price1.String())
}

func TestReservesAndPrices(t *testing.T) {
	backend := &fakeHook{t: t, reserve0: big.NewInt(300), reserve1: big.NewInt(700)}
	client := NewClient(common.HexToAddress("0x1111111111111111111111111111111111111111"), backend)

	reserves, err := client.Reserves(context.Background(), testKey(t))
	require.NoError(t, err)
	require.Equal(t, "1000", reserves.Total().String())

	p0, p1, err := client.Prices(context.Background(), testKey(t))
	require.NoError(t, err)
	require.Equal(t, int64(30), p0.Int64())
	require.Equal(t, int64(70), p1.Int64())
	require.Equal(t, []string{"getReserves", "getPrices"}, backend.calls)
}

func TestCalldataBuilders(t *testing.T) {
	client := NewClient(common.HexToAddress("0x1111111111111111111111111111111111111111"), nil)
	parsed, err := hookABI.ABI()
	require.NoError(t, err)
	key := testKey(t)

	data, err := client.AddLiquidityCalldata(key, big.NewInt(5), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, parsed.Methods["addLiquidity"].ID, data[:4])

	args, err := parsed.Methods["addLiquidity"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 3)
	require.Equal(t, "5", args[1].(*big.Int).String())

	_, err = client.AddLiquidityCalldata(key, big.NewInt(0), big.NewInt(0))
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
	_, err = client.AddLiquidityCalldata(key, big.NewInt(-1), big.NewInt(3))
	require.ErrorIs(t, err, amm.ErrInvalidArgument)

	data, err = client.AddAvailableLiquidityCalldata(key)
	require.NoError(t, err)
	require.Equal(t, parsed.Methods["addAvailableLiquidity"].ID, data[:4])

	data, err = client.AddInitialLiquidityCalldata(key, big.NewInt(2000))
	require.NoError(t, err)
	require.Equal(t, parsed.Methods["addInitialLiquidity"].ID, data[:4])

	_, err = client.AddInitialLiquidityCalldata(key, big.NewInt(0))
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
}

func TestPoolInfoFromParts(t *testing.T) {
	backend := &fakeHook{t: t, reserve0: big.NewInt(1600), reserve1: big.NewInt(400)}
	client := NewClient(common.HexToAddress("0x1111111111111111111111111111111111111111"), backend)

	info, err := client.PoolInfoFromParts(context.Background(), testKey(t))
	require.NoError(t, err)
	require.Equal(t, "2000", info.Liquidity.String())
	require.Equal(t, "1600", info.Reserve0.String())
	require.Equal(t, int64(80), info.Price0.Int64())
	require.Equal(t, int64(20), info.Price1.Int64())
	require.Equal(t, []string{"getReserves", "getPrices"}, backend.calls)
}

func TestSwapCalldata(t *testing.T) {
	client := NewClient(common.HexToAddress("0x1111111111111111111111111111111111111111"), nil)
	parsed, err := hookABI.ABI()
	require.NoError(t, err)
	key := testKey(t)

	data, err := client.SwapCalldata(key, true, big.NewInt(250))
	require.NoError(t, err)
	method := parsed.Methods["swap"]
	require.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 3)

	gotKey := abi.ConvertType(args[0], new(pool.Key)).(*pool.Key)
	require.Equal(t, key.Currency0, gotKey.Currency0)
	require.Equal(t, key.Hooks, gotKey.Hooks)

	params := *abi.ConvertType(args[1], new(swapParams)).(*swapParams)
	require.True(t, params.ZeroForOne)
	require.Equal(t, "250", params.AmountSpecified.String())
	require.Zero(t, params.SqrtPriceLimitX96.Sign())
	require.Empty(t, args[2].([]byte))

	data, err = client.SwapCalldata(key, false, big.NewInt(1))
	require.NoError(t, err)
	args, err = method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.False(t, abi.ConvertType(args[1], new(swapParams)).(*swapParams).ZeroForOne)

	_, err = client.SwapCalldata(key, true, big.NewInt(0))
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
	_, err = client.SwapCalldata(key, true, nil)
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
}
