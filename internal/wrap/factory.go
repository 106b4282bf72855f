// Package wrap talks to the Wrapped1155Factory, which turns an ERC-1155
// position into a deterministic ERC-20 wrapper.
package wrap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"predictionScope/internal/contract"
)

// CodeReader looks up deployed bytecode.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Backend is the chain access the factory client needs.
type Backend interface {
	ethereum.ContractCaller
	CodeReader
}

// Position names one ERC-1155 token type together with the wrapper metadata
// chosen for it.
type Position struct {
	MultiToken common.Address
	TokenID    *big.Int
	Metadata   Metadata
}

// WrappedToken is the resolved wrapper for a Position.
type WrappedToken struct {
	Position Position
	Address  common.Address
	// Deployed is false until the first wrap for this exact position and
	// metadata has been mined.
	Deployed bool
}

// Factory is a client for a deployed Wrapped1155Factory.
type Factory struct {
	address common.Address
	backend Backend
}

// NewFactory builds a factory client.
func NewFactory(address common.Address, backend Backend) *Factory {
	return &Factory{address: address, backend: backend}
}

// Address returns the factory address.
func (f *Factory) Address() common.Address {
	return f.address
}

// Wrapped1155 asks the factory for the wrapper address of
// (multiToken, tokenID, metadata). The derivation stays on chain; this is a
// view call and never sends a transaction.
func (f *Factory) Wrapped1155(ctx context.Context, multiToken common.Address, tokenID *big.Int, metadata []byte) (common.Address, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return common.Address{}, fmt.Errorf("invalid token id")
	}
	parsed, err := factoryABI.ABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := contract.Call(ctx, f.backend, f.address, parsed, "getWrapped1155", nil, multiToken, tokenID, metadata)
	if err != nil {
		return common.Address{}, err
	}
	return contract.AsAddress(values[0])
}

// Lookup resolves the wrapper for a position and checks whether it is live.
func (f *Factory) Lookup(ctx context.Context, position Position) (WrappedToken, error) {
	metadata, err := position.Metadata.Encode()
	if err != nil {
		return WrappedToken{}, err
	}
	address, err := f.Wrapped1155(ctx, position.MultiToken, position.TokenID, metadata)
	if err != nil {
		return WrappedToken{}, err
	}
	code, err := f.backend.CodeAt(ctx, address, nil)
	if err != nil {
		return WrappedToken{}, fmt.Errorf("code at %s: %w", address.Hex(), err)
	}
	return WrappedToken{
		Position: position,
		Address:  address,
		Deployed: len(code) > 0,
	}, nil
}

// WrapCalldata builds the ERC-1155 safeTransferFrom that sends amount of the
// position from owner to the factory. The factory mints wrapper tokens to
// owner on receipt. The call targets position.MultiToken.
func (f *Factory) WrapCalldata(owner common.Address, position Position, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("wrap amount must be positive")
	}
	metadata, err := position.Metadata.Encode()
	if err != nil {
		return nil, err
	}
	parsed, err := erc1155ABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	return parsed.Pack("safeTransferFrom", owner, f.address, position.TokenID, amount, metadata)
}

// UnwrapCalldata builds the factory call that burns amount of the wrapper and
// returns the ERC-1155 position to recipient. The call targets the factory.
func (f *Factory) UnwrapCalldata(position Position, amount *big.Int, recipient common.Address) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("unwrap amount must be positive")
	}
	metadata, err := position.Metadata.Encode()
	if err != nil {
		return nil, err
	}
	parsed, err := factoryABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	return parsed.Pack("unwrap", position.MultiToken, position.TokenID, amount, recipient, metadata)
}
