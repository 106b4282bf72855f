// Package contract holds the eth_call plumbing shared by the hook, factory and
// token clients.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Lazy parses an ABI JSON document once.
type Lazy struct {
	json string
	once sync.Once
	abi  abi.ABI
	err  error
}

// NewLazy wraps an ABI JSON document.
func NewLazy(json string) *Lazy {
	return &Lazy{json: json}
}

// ABI returns the parsed ABI.
func (l *Lazy) ABI() (abi.ABI, error) {
	l.once.Do(func() {
		l.abi, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.abi, l.err
}

// Call packs method with args, performs an eth_call at block (nil for latest)
// and unpacks the outputs.
func Call(ctx context.Context, caller ethereum.ContractCaller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
