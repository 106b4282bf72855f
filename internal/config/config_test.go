package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testConfig = `
rpc: https://polygon-rpc.example
hook: "0x4a8AE4911c363f2669215fb5b330132EA41a532c"
yes-token: "0x91BdE82669D279B37a5F4Fe44c0D4b06054577B1"
no-token: "0xcDb79f7f9D387cd034e87abAc34e222F146fc3C5"
factory: "0xC14F5D2B9D6945ef1Ba93F8DB20294B90FA5B5B1"
multi-token: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"
yes-id: "65880048952541620153230365826580171049439578129923156747663728476967119230732"
no-id: "0x10"
yes-symbol: wYES
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadChainMarket(t *testing.T) {
	cfg, err := LoadChain(writeConfig(t, testConfig), nil)
	require.NoError(t, err)

	require.Equal(t, "https://polygon-rpc.example", cfg.RPCURL)
	require.Equal(t, "PRIVATE_KEY", cfg.KeyEnv)
	require.Equal(t, uint32(DefaultFee), cfg.Market.Fee)
	require.Equal(t, int32(DefaultTickSpacing), cfg.Market.TickSpacing)

	key, err := cfg.Market.PoolKey()
	require.NoError(t, err)
	// YES sorts below NO, so YES is currency0.
	require.Equal(t, "0x91BdE82669D279B37a5F4Fe44c0D4b06054577B1", key.Currency0.Hex())

	yes, err := cfg.Market.Position("yes")
	require.NoError(t, err)
	require.Equal(t, "65880048952541620153230365826580171049439578129923156747663728476967119230732", yes.TokenID.String())
	require.Equal(t, "wYES", yes.Metadata.Symbol)
	require.Equal(t, uint8(DefaultDecimals), yes.Metadata.Decimals)

	no, err := cfg.Market.Position("NO")
	require.NoError(t, err)
	require.Equal(t, int64(16), no.TokenID.Int64())

	_, err = cfg.Market.Position("maybe")
	require.Error(t, err)
}

func TestFlagsOverrideFile(t *testing.T) {
	flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	flags.Duration("interval", 10*time.Second, "")
	flags.Float64("tolerance", 1, "")
	require.NoError(t, flags.Parse([]string{"--interval=3s"}))

	cfg, err := LoadWatch(writeConfig(t, testConfig+"tolerance: 2.5\n"), flags)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Interval)
	require.Equal(t, 2.5, cfg.Tolerance)
	require.Equal(t, "pool", cfg.SubjectPrefix)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCOPE_PG_DSN", "postgres://scope@localhost/scope")
	t.Setenv("SCOPE_WINDOW", "1h")

	cfg, err := LoadReplay(writeConfig(t, "in: events.jsonl\n"), nil)
	require.NoError(t, err)
	require.Equal(t, "postgres://scope@localhost/scope", cfg.PGDSN)
	require.Equal(t, "1h", cfg.Window)
	require.Equal(t, "events.jsonl", cfg.Input)
}

func TestLoadIndexDefaultsToHook(t *testing.T) {
	cfg, err := LoadIndex(writeConfig(t, testConfig), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0x4a8AE4911c363f2669215fb5b330132EA41a532c"}, cfg.Addresses)
	require.Equal(t, uint64(2000), cfg.BatchSize)
}

func TestLoadDecodeTopicMap(t *testing.T) {
	cfg, err := LoadDecode(writeConfig(t, "topic0-map: \"0xaa=SwapExecuted, 0xbb=LiquidityAdded,bad\"\n"), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"0xaa": "SwapExecuted", "0xbb": "LiquidityAdded"}, cfg.Topic0Map)
}

func TestMarketValidation(t *testing.T) {
	_, err := Market{}.PoolKey()
	require.Error(t, err)

	_, err = Market{Hook: "0x4a8AE4911c363f2669215fb5b330132EA41a532c", YesToken: "nope", NoToken: "0x01"}.PoolKey()
	require.Error(t, err)

	_, err = ParseTokenID("-5")
	require.Error(t, err)
	_, err = ParseTokenID("")
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp(" ")
	require.NoError(t, err)
	require.Zero(t, ts)

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestLoadIndexListsFromEnv(t *testing.T) {
	t.Setenv("SCOPE_ADDRESS", " 0x01, ,0x02")
	t.Setenv("SCOPE_CONFIRMATIONS", "32")
	cfg, err := LoadIndex(writeConfig(t, "rpc: http://localhost:8545\n"), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0x01", "0x02"}, cfg.Addresses)
	require.Equal(t, uint64(32), cfg.Confirmations)
}
