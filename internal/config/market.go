package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"predictionScope/internal/pool"
	"predictionScope/internal/wrap"
)

// Default pool parameters of the deployed prediction market.
const (
	DefaultFee         = 3000
	DefaultTickSpacing = 60
	DefaultDecimals    = 18
)

// Market describes one binary prediction market: the hook pool trading the
// YES/NO wrappers and the ERC-1155 positions behind them. It replaces any
// hard-coded address and is passed explicitly to every operation.
type Market struct {
	Hook        string
	YesToken    string
	NoToken     string
	Fee         uint32
	TickSpacing int32
	Factory     string
	MultiToken  string
	YesID       string
	NoID        string
	YesMetadata wrap.Metadata
	NoMetadata  wrap.Metadata
}

func marketDefaults() map[string]interface{} {
	return map[string]interface{}{
		"fee":          DefaultFee,
		"tick-spacing": DefaultTickSpacing,
		"yes-name":     "Wrapped Yes Position",
		"yes-symbol":   "wYES",
		"no-name":      "Wrapped No Position",
		"no-symbol":    "wNO",
		"decimals":     DefaultDecimals,
	}
}

func loadMarket(v *viper.Viper) Market {
	decimals := uint8(v.GetUint("decimals"))
	return Market{
		Hook:        v.GetString("hook"),
		YesToken:    v.GetString("yes-token"),
		NoToken:     v.GetString("no-token"),
		Fee:         v.GetUint32("fee"),
		TickSpacing: v.GetInt32("tick-spacing"),
		Factory:     v.GetString("factory"),
		MultiToken:  v.GetString("multi-token"),
		YesID:       v.GetString("yes-id"),
		NoID:        v.GetString("no-id"),
		YesMetadata: wrap.Metadata{
			Name:     v.GetString("yes-name"),
			Symbol:   v.GetString("yes-symbol"),
			Decimals: decimals,
		},
		NoMetadata: wrap.Metadata{
			Name:     v.GetString("no-name"),
			Symbol:   v.GetString("no-symbol"),
			Decimals: decimals,
		},
	}
}

// HookAddress returns the hook contract address.
func (m Market) HookAddress() (common.Address, error) {
	return parseAddress("hook", m.Hook)
}

// FactoryAddress returns the Wrapped1155Factory address.
func (m Market) FactoryAddress() (common.Address, error) {
	return parseAddress("factory", m.Factory)
}

// PoolKey builds the canonical pool key for the YES/NO pair.
func (m Market) PoolKey() (pool.Key, error) {
	hook, err := m.HookAddress()
	if err != nil {
		return pool.Key{}, err
	}
	yes, err := parseAddress("yes-token", m.YesToken)
	if err != nil {
		return pool.Key{}, err
	}
	no, err := parseAddress("no-token", m.NoToken)
	if err != nil {
		return pool.Key{}, err
	}
	return pool.NewKey(yes, no, m.Fee, m.TickSpacing, hook)
}

// YesTokenAddress returns the YES wrapper address.
func (m Market) YesTokenAddress() (common.Address, error) {
	return parseAddress("yes-token", m.YesToken)
}

// NoTokenAddress returns the NO wrapper address.
func (m Market) NoTokenAddress() (common.Address, error) {
	return parseAddress("no-token", m.NoToken)
}

// Position returns the ERC-1155 position for the "yes" or "no" side.
func (m Market) Position(side string) (wrap.Position, error) {
	multiToken, err := parseAddress("multi-token", m.MultiToken)
	if err != nil {
		return wrap.Position{}, err
	}

	var rawID string
	var meta wrap.Metadata
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "yes":
		rawID, meta = m.YesID, m.YesMetadata
	case "no":
		rawID, meta = m.NoID, m.NoMetadata
	default:
		return wrap.Position{}, fmt.Errorf("unknown side %q, want yes or no", side)
	}

	id, err := ParseTokenID(rawID)
	if err != nil {
		return wrap.Position{}, fmt.Errorf("%s-id: %w", side, err)
	}
	return wrap.Position{MultiToken: multiToken, TokenID: id, Metadata: meta}, nil
}

// ParseTokenID parses a decimal or 0x-prefixed ERC-1155 token id.
func ParseTokenID(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("token id is required")
	}
	id, ok := new(big.Int).SetString(input, 0)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id: %s", input)
	}
	return id, nil
}

func parseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s address is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, input)
	}
	return common.HexToAddress(input), nil
}
