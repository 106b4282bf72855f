package wrap

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// fakeChain answers the factory, ERC-1155 and ERC-20 views used by the
// package. Wrapper addresses are a hash of the call arguments, so the fake
// is deterministic the same way the real factory is.
type fakeChain struct {
	deployed map[common.Address]bool
	balances map[common.Address]*big.Int
	calls    int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		deployed: make(map[common.Address]bool),
		balances: make(map[common.Address]*big.Int),
	}
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	factory, err := factoryABI.ABI()
	if err != nil {
		return nil, err
	}
	tokens, err := erc1155ABI.ABI()
	if err != nil {
		return nil, err
	}

	if method, err := factory.MethodById(msg.Data[:4]); err == nil && method.Name == "getWrapped1155" {
		addr := common.BytesToAddress(crypto.Keccak256(msg.Data[4:])[12:])
		return method.Outputs.Pack(addr)
	}
	if method, err := tokens.MethodById(msg.Data[:4]); err == nil && method.Name == "balanceOf" {
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		account := args[0].(common.Address)
		balance, ok := f.balances[account]
		if !ok {
			balance = new(big.Int)
		}
		return method.Outputs.Pack(balance)
	}
	return nil, fmt.Errorf("unexpected call %x", msg.Data[:4])
}

func (f *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	if f.deployed[account] {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

var (
	factoryAddr = common.HexToAddress("0xc14f5d2b9d6945ef1ba93f8db20294b90fa5b5b1")
	ctfAddr     = common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045")
	holder      = common.HexToAddress("0x884F5C47fA1eCaF0C8957611f648Fb320551ab51")
)

func yesPosition() Position {
	return Position{
		MultiToken: ctfAddr,
		TokenID:    big.NewInt(1),
		Metadata:   Metadata{Name: "Wrapped Yes", Symbol: "wYES", Decimals: 18},
	}
}

func TestWrapped1155Idempotent(t *testing.T) {
	chain := newFakeChain()
	factory := NewFactory(factoryAddr, chain)
	metadata, err := yesPosition().Metadata.Encode()
	require.NoError(t, err)

	first, err := factory.Wrapped1155(context.Background(), ctfAddr, big.NewInt(1), metadata)
	require.NoError(t, err)
	second, err := factory.Wrapped1155(context.Background(), ctfAddr, big.NewInt(1), metadata)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 2, chain.calls)
}

func TestWrapped1155DependsOnMetadata(t *testing.T) {
	factory := NewFactory(factoryAddr, newFakeChain())

	position := yesPosition()
	a, err := factory.Lookup(context.Background(), position)
	require.NoError(t, err)

	position.Metadata.Symbol = "wYES2"
	b, err := factory.Lookup(context.Background(), position)
	require.NoError(t, err)
	require.NotEqual(t, a.Address, b.Address)
}

func TestLookupDeployed(t *testing.T) {
	chain := newFakeChain()
	factory := NewFactory(factoryAddr, chain)

	token, err := factory.Lookup(context.Background(), yesPosition())
	require.NoError(t, err)
	require.False(t, token.Deployed)

	chain.deployed[token.Address] = true
	token, err = factory.Lookup(context.Background(), yesPosition())
	require.NoError(t, err)
	require.True(t, token.Deployed)
}

func TestWrapCalldata(t *testing.T) {
	factory := NewFactory(factoryAddr, newFakeChain())
	data, err := factory.WrapCalldata(holder, yesPosition(), big.NewInt(100))
	require.NoError(t, err)

	parsed, err := erc1155ABI.ABI()
	require.NoError(t, err)
	method, err := parsed.MethodById(data[:4])
	require.NoError(t, err)
	require.Equal(t, "safeTransferFrom", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, holder, args[0])
	require.Equal(t, factoryAddr, args[1])
	require.Equal(t, int64(1), args[2].(*big.Int).Int64())
	require.Equal(t, int64(100), args[3].(*big.Int).Int64())

	meta, err := DecodeMetadata(args[4].([]byte))
	require.NoError(t, err)
	require.Equal(t, yesPosition().Metadata, meta)

	_, err = factory.WrapCalldata(holder, yesPosition(), big.NewInt(0))
	require.Error(t, err)
}

func TestUnwrapCalldata(t *testing.T) {
	factory := NewFactory(factoryAddr, newFakeChain())
	data, err := factory.UnwrapCalldata(yesPosition(), big.NewInt(7), holder)
	require.NoError(t, err)

	parsed, err := factoryABI.ABI()
	require.NoError(t, err)
	method, err := parsed.MethodById(data[:4])
	require.NoError(t, err)
	require.Equal(t, "unwrap", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, ctfAddr, args[0])
	require.Equal(t, int64(7), args[2].(*big.Int).Int64())
	require.Equal(t, holder, args[3])

	metadata, err := yesPosition().Metadata.Encode()
	require.NoError(t, err)
	require.Equal(t, metadata, args[4].([]byte))
}

func TestBalance1155(t *testing.T) {
	chain := newFakeChain()
	chain.balances[holder] = big.NewInt(250)

	balance, err := Balance1155(context.Background(), chain, ctfAddr, holder, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, int64(250), balance.Int64())
}

func TestApproveCalldata(t *testing.T) {
	data, err := ApproveCalldata(factoryAddr, big.NewInt(42))
	require.NoError(t, err)

	parsed, err := erc20StringABI.ABI()
	require.NoError(t, err)
	method, err := parsed.MethodById(data[:4])
	require.NoError(t, err)
	require.Equal(t, "approve", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, factoryAddr, args[0])
	require.Equal(t, int64(42), args[1].(*big.Int).Int64())

	_, err = ApproveCalldata(factoryAddr, big.NewInt(-1))
	require.Error(t, err)
}
