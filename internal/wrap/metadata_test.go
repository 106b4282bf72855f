package wrap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"predictionScope/internal/amm"
)

func TestMetadataLayout(t *testing.T) {
	encoded, err := Metadata{Name: "Wrapped Token", Symbol: "WRAP", Decimals: 18}.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, MetadataSize)

	// Same bytes as padRight(utf8ToHex(name), 64) ++ padRight(utf8ToHex(symbol), 64) ++ uint8.
	want := "0x" +
		hexutil.Encode([]byte("Wrapped Token"))[2:] + strings.Repeat("00", 32-len("Wrapped Token")) +
		hexutil.Encode([]byte("WRAP"))[2:] + strings.Repeat("00", 32-len("WRAP")) +
		"12"
	require.Equal(t, want, hexutil.Encode(encoded))
}

func TestMetadataRoundTrip(t *testing.T) {
	cases := []Metadata{
		{Name: "Yes Shares", Symbol: "YES", Decimals: 6},
		{Name: "", Symbol: "", Decimals: 0},
		{Name: strings.Repeat("n", 32), Symbol: strings.Repeat("s", 32), Decimals: 255},
		{Name: "Oui ✓", Symbol: "OUI", Decimals: 18},
	}
	for _, meta := range cases {
		encoded, err := meta.Encode()
		require.NoError(t, err)
		decoded, err := DecodeMetadata(encoded)
		require.NoError(t, err)
		require.Equal(t, meta, decoded)

		again, err := decoded.Encode()
		require.NoError(t, err)
		require.True(t, bytes.Equal(encoded, again))
	}
}

func TestMetadataRejectsOversize(t *testing.T) {
	_, err := Metadata{Name: strings.Repeat("n", 33), Symbol: "X"}.Encode()
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
	_, err = EncodeMetadata("X", strings.Repeat("s", 33), 18)
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
	_, err = Metadata{Name: "a\x00b", Symbol: "X"}.Encode()
	require.ErrorIs(t, err, amm.ErrInvalidArgument)
}

func TestDecodeMetadataRejectsLength(t *testing.T) {
	_, err := DecodeMetadata(make([]byte, 64))
	require.Error(t, err)
}
