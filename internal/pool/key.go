// Package pool identifies constant-sum pools the way the hook addresses them.
package pool

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is the hook's pool key tuple. Fee and TickSpacing are carried for the
// hook's schema only; the constant-sum math ignores them.
type Key struct {
	Currency0   common.Address `abi:"currency0"`
	Currency1   common.Address `abi:"currency1"`
	Fee         *big.Int       `abi:"fee"`
	TickSpacing *big.Int       `abi:"tickSpacing"`
	Hooks       common.Address `abi:"hooks"`
}

// NewKey orders the two currencies canonically so either argument order
// produces the same key.
func NewKey(tokenA, tokenB common.Address, fee uint32, tickSpacing int32, hooks common.Address) (Key, error) {
	if tokenA == tokenB {
		return Key{}, fmt.Errorf("identical currencies: %s", tokenA.Hex())
	}
	if fee >= 1<<24 {
		return Key{}, fmt.Errorf("fee %d overflows uint24", fee)
	}
	if tickSpacing < -(1<<23) || tickSpacing >= 1<<23 {
		return Key{}, fmt.Errorf("tick spacing %d overflows int24", tickSpacing)
	}

	currency0, currency1 := tokenA, tokenB
	if bytes.Compare(currency0.Bytes(), currency1.Bytes()) > 0 {
		currency0, currency1 = currency1, currency0
	}

	return Key{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         new(big.Int).SetUint64(uint64(fee)),
		TickSpacing: big.NewInt(int64(tickSpacing)),
		Hooks:       hooks,
	}, nil
}

// Flipped reports whether tokenA ended up as currency1.
func (k Key) Flipped(tokenA common.Address) bool {
	return k.Currency1 == tokenA
}

var (
	keyArgs     abi.Arguments
	keyArgsOnce sync.Once
	keyArgsErr  error
)

func keyArguments() (abi.Arguments, error) {
	keyArgsOnce.Do(func() {
		types := []string{"address", "address", "uint24", "int24", "address"}
		for _, name := range types {
			typ, err := abi.NewType(name, "", nil)
			if err != nil {
				keyArgsErr = fmt.Errorf("abi type %s: %w", name, err)
				return
			}
			keyArgs = append(keyArgs, abi.Argument{Type: typ})
		}
	})
	return keyArgs, keyArgsErr
}

// ID returns keccak256(abi.encode(currency0, currency1, fee, tickSpacing, hooks)).
func (k Key) ID() (common.Hash, error) {
	args, err := keyArguments()
	if err != nil {
		return common.Hash{}, err
	}
	if k.Fee == nil || k.TickSpacing == nil {
		return common.Hash{}, fmt.Errorf("pool key is incomplete")
	}
	encoded, err := args.Pack(k.Currency0, k.Currency1, k.Fee, k.TickSpacing, k.Hooks)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode pool key: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
