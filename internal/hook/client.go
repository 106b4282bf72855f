// Package hook is a client for the FlexiblePredictionHook, the contract that
// holds constant-sum reserves for each registered pool.
package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"predictionScope/internal/amm"
	"predictionScope/internal/contract"
	"predictionScope/internal/pool"
)

// PoolInfo is the hook's view of one pool. Price0 and Price1 are integer
// percentages (0-100) as computed on chain.
type PoolInfo struct {
	Liquidity *big.Int
	Reserve0  *big.Int
	Reserve1  *big.Int
	Price0    *big.Int
	Price1    *big.Int
}

// Reserves validates the reported reserves for use with the amm package.
func (p PoolInfo) Reserves() (amm.Reserves, error) {
	return amm.NewReserves(p.Reserve0, p.Reserve1)
}

// Client reads from and builds calls for a deployed hook.
type Client struct {
	address common.Address
	caller  ethereum.ContractCaller
}

// NewClient builds a hook client.
func NewClient(address common.Address, caller ethereum.ContractCaller) *Client {
	return &Client{address: address, caller: caller}
}

// Address returns the hook address.
func (c *Client) Address() common.Address {
	return c.address
}

// PoolInfo calls getPoolInfo at block (nil for latest).
func (c *Client) PoolInfo(ctx context.Context, key pool.Key, block *big.Int) (PoolInfo, error) {
	values, err := c.call(ctx, "getPoolInfo", block, key)
	if err != nil {
		return PoolInfo{}, err
	}
	ints, err := bigInts(values, 5)
	if err != nil {
		return PoolInfo{}, fmt.Errorf("getPoolInfo: %w", err)
	}
	return PoolInfo{
		Liquidity: ints[0],
		Reserve0:  ints[1],
		Reserve1:  ints[2],
		Price0:    ints[3],
		Price1:    ints[4],
	}, nil
}

// Reserves calls getReserves.
func (c *Client) Reserves(ctx context.Context, key pool.Key) (amm.Reserves, error) {
	values, err := c.call(ctx, "getReserves", nil, key)
	if err != nil {
		return amm.Reserves{}, err
	}
	ints, err := bigInts(values, 2)
	if err != nil {
		return amm.Reserves{}, fmt.Errorf("getReserves: %w", err)
	}
	return amm.NewReserves(ints[0], ints[1])
}

// Prices calls getPrices and returns the hook's integer percentages.
func (c *Client) Prices(ctx context.Context, key pool.Key) (*big.Int, *big.Int, error) {
	values, err := c.call(ctx, "getPrices", nil, key)
	if err != nil {
		return nil, nil, err
	}
	ints, err := bigInts(values, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("getPrices: %w", err)
	}
	return ints[0], ints[1], nil
}

// PoolInfoFromParts assembles a PoolInfo from getReserves and getPrices at the
// latest block, for hooks whose getPoolInfo reverts. Liquidity is the
// reserve sum.
func (c *Client) PoolInfoFromParts(ctx context.Context, key pool.Key) (PoolInfo, error) {
	reserves, err := c.Reserves(ctx, key)
	if err != nil {
		return PoolInfo{}, err
	}
	price0, price1, err := c.Prices(ctx, key)
	if err != nil {
		return PoolInfo{}, err
	}
	return PoolInfo{
		Liquidity: reserves.Total(),
		Reserve0:  reserves.Reserve0,
		Reserve1:  reserves.Reserve1,
		Price0:    price0,
		Price1:    price1,
	}, nil
}

// swapParams mirrors the hook's SwapParams tuple.
type swapParams struct {
	ZeroForOne        bool     `abi:"zeroForOne"`
	AmountSpecified   *big.Int `abi:"amountSpecified"`
	SqrtPriceLimitX96 *big.Int `abi:"sqrtPriceLimitX96"`
}

// SwapCalldata encodes swap(key, params, "") selling amountIn of currency0
// when zeroForOne, currency1 otherwise. No price limit is set.
func (c *Client) SwapCalldata(key pool.Key, zeroForOne bool, amountIn *big.Int) ([]byte, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("swap amount must be positive: %w", amm.ErrInvalidArgument)
	}
	params := swapParams{
		ZeroForOne:        zeroForOne,
		AmountSpecified:   new(big.Int).Set(amountIn),
		SqrtPriceLimitX96: new(big.Int),
	}
	return c.pack("swap", key, params, []byte{})
}

// AddLiquidityCalldata encodes addLiquidity(key, amount0, amount1).
func (c *Client) AddLiquidityCalldata(key pool.Key, amount0, amount1 *big.Int) ([]byte, error) {
	if amount0 == nil || amount1 == nil || amount0.Sign() < 0 || amount1.Sign() < 0 {
		return nil, fmt.Errorf("liquidity amounts must be non-negative: %w", amm.ErrInvalidArgument)
	}
	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return nil, fmt.Errorf("liquidity amounts are both zero: %w", amm.ErrInvalidArgument)
	}
	return c.pack("addLiquidity", key, amount0, amount1)
}

// AddAvailableLiquidityCalldata encodes addAvailableLiquidity(key), which
// deposits whatever token balance the hook already holds for the pool.
func (c *Client) AddAvailableLiquidityCalldata(key pool.Key) ([]byte, error) {
	return c.pack("addAvailableLiquidity", key)
}

// AddInitialLiquidityCalldata encodes addInitialLiquidity(key, totalAmount).
func (c *Client) AddInitialLiquidityCalldata(key pool.Key, total *big.Int) ([]byte, error) {
	if total == nil || total.Sign() <= 0 {
		return nil, fmt.Errorf("initial liquidity must be positive: %w", amm.ErrInvalidArgument)
	}
	return c.pack("addInitialLiquidity", key, total)
}

func (c *Client) call(ctx context.Context, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	parsed, err := c.abi()
	if err != nil {
		return nil, err
	}
	return contract.Call(ctx, c.caller, c.address, parsed, method, block, args...)
}

func (c *Client) pack(method string, args ...interface{}) ([]byte, error) {
	parsed, err := c.abi()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func (c *Client) abi() (abi.ABI, error) {
	parsed, err := hookABI.ABI()
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse hook abi: %w", err)
	}
	return parsed, nil
}

func bigInts(values []interface{}, want int) ([]*big.Int, error) {
	if len(values) != want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(values))
	}
	out := make([]*big.Int, 0, want)
	for _, value := range values {
		v, err := contract.AsBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
