package wrap

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"predictionScope/internal/amm"
)

const (
	nameSize     = 32
	symbolSize   = 32
	MetadataSize = nameSize + symbolSize + 1
)

// Metadata describes the ERC-20 wrapper the factory deploys for a position.
//
// Wire layout (65 bytes):
//
//	[0:32)  name, UTF-8, right-padded with zero bytes
//	[32:64) symbol, UTF-8, right-padded with zero bytes
//	[64]    decimals
//
// Every wrap and unwrap for the same position must send byte-identical
// metadata, otherwise the factory resolves a different wrapper.
type Metadata struct {
	Name     string `mapstructure:"name" json:"name"`
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Decimals uint8  `mapstructure:"decimals" json:"decimals"`
}

// Encode packs the metadata into its 65-byte form.
func (m Metadata) Encode() ([]byte, error) {
	if len(m.Name) > nameSize {
		return nil, fmt.Errorf("name %q is %d bytes, max %d: %w", m.Name, len(m.Name), nameSize, amm.ErrInvalidArgument)
	}
	if len(m.Symbol) > symbolSize {
		return nil, fmt.Errorf("symbol %q is %d bytes, max %d: %w", m.Symbol, len(m.Symbol), symbolSize, amm.ErrInvalidArgument)
	}
	if !utf8.ValidString(m.Name) || !utf8.ValidString(m.Symbol) {
		return nil, fmt.Errorf("name and symbol must be valid UTF-8: %w", amm.ErrInvalidArgument)
	}
	if bytes.IndexByte([]byte(m.Name), 0) >= 0 || bytes.IndexByte([]byte(m.Symbol), 0) >= 0 {
		return nil, fmt.Errorf("name and symbol must not contain zero bytes: %w", amm.ErrInvalidArgument)
	}

	out := make([]byte, MetadataSize)
	copy(out[:nameSize], m.Name)
	copy(out[nameSize:nameSize+symbolSize], m.Symbol)
	out[MetadataSize-1] = m.Decimals
	return out, nil
}

// EncodeMetadata is shorthand for Metadata{name, symbol, decimals}.Encode().
func EncodeMetadata(name, symbol string, decimals uint8) ([]byte, error) {
	return Metadata{Name: name, Symbol: symbol, Decimals: decimals}.Encode()
}

// DecodeMetadata parses the 65-byte form produced by Encode.
func DecodeMetadata(data []byte) (Metadata, error) {
	if len(data) != MetadataSize {
		return Metadata{}, fmt.Errorf("metadata is %d bytes, want %d", len(data), MetadataSize)
	}
	name := bytes.TrimRight(data[:nameSize], "\x00")
	symbol := bytes.TrimRight(data[nameSize:nameSize+symbolSize], "\x00")
	if !utf8.Valid(name) || !utf8.Valid(symbol) {
		return Metadata{}, fmt.Errorf("metadata name or symbol is not valid UTF-8")
	}
	return Metadata{
		Name:     string(name),
		Symbol:   string(symbol),
		Decimals: data[MetadataSize-1],
	}, nil
}
