package wrap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"predictionScope/internal/contract"
	"predictionScope/internal/model"
)

// Balance1155 returns account's balance of token id on an ERC-1155 contract.
func Balance1155(ctx context.Context, caller ethereum.ContractCaller, multiToken, account common.Address, id *big.Int) (*big.Int, error) {
	parsed, err := erc1155ABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	values, err := contract.Call(ctx, caller, multiToken, parsed, "balanceOf", nil, account, id)
	if err != nil {
		return nil, err
	}
	return contract.AsBigInt(values[0])
}

// IsApprovedForAll reports whether operator may move account's ERC-1155 tokens.
func IsApprovedForAll(ctx context.Context, caller ethereum.ContractCaller, multiToken, account, operator common.Address) (bool, error) {
	parsed, err := erc1155ABI.ABI()
	if err != nil {
		return false, fmt.Errorf("parse erc1155 abi: %w", err)
	}
	values, err := contract.Call(ctx, caller, multiToken, parsed, "isApprovedForAll", nil, account, operator)
	if err != nil {
		return false, err
	}
	return contract.AsBool(values[0])
}

// Balance20 returns account's balance of an ERC-20 token.
func Balance20(ctx context.Context, caller ethereum.ContractCaller, token, account common.Address) (*big.Int, error) {
	parsed, err := erc20StringABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := contract.Call(ctx, caller, token, parsed, "balanceOf", nil, account)
	if err != nil {
		return nil, err
	}
	return contract.AsBigInt(values[0])
}

// Allowance returns how much of owner's token spender may move.
func Allowance(ctx context.Context, caller ethereum.ContractCaller, token, owner, spender common.Address) (*big.Int, error) {
	parsed, err := erc20StringABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := contract.Call(ctx, caller, token, parsed, "allowance", nil, owner, spender)
	if err != nil {
		return nil, err
	}
	return contract.AsBigInt(values[0])
}

// ApproveCalldata builds an ERC-20 approve(spender, amount) call.
func ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approve amount must not be negative")
	}
	parsed, err := erc20StringABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	return parsed.Pack("approve", spender, amount)
}

// TotalSupply returns an ERC-20 token's total supply.
func TotalSupply(ctx context.Context, caller ethereum.ContractCaller, token common.Address) (*big.Int, error) {
	parsed, err := erc20StringABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := contract.Call(ctx, caller, token, parsed, "totalSupply", nil)
	if err != nil {
		return nil, err
	}
	return contract.AsBigInt(values[0])
}

// FetchTokenMeta loads ERC-20 metadata, falling back to bytes32 name/symbol
// for tokens that predate the string convention.
func FetchTokenMeta(ctx context.Context, caller ethereum.ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20StringABI.ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := contract.Call(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := contract.AsUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := contract.Call(ctx, caller, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := contract.Call(ctx, caller, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := contract.Bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := contract.Call(ctx, caller, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := contract.Call(ctx, caller, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := contract.Bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// MatchesMetadata reports whether the deployed wrapper exposes the metadata
// the position was wrapped with.
func MatchesMetadata(meta model.TokenMeta, want Metadata) bool {
	return meta.Name == want.Name && meta.Symbol == want.Symbol && meta.Decimals == want.Decimals
}
