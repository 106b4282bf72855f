package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLoadKeyFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCOPE_TEST_KEY=0x"+testKeyHex+"\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SCOPE_TEST_KEY") })

	key, err := LoadKey(envFile, "SCOPE_TEST_KEY")
	require.NoError(t, err)

	want, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(want.PublicKey), crypto.PubkeyToAddress(key.PublicKey))
}

func TestLoadKeyMissing(t *testing.T) {
	t.Setenv("SCOPE_EMPTY_KEY", "")
	_, err := LoadKey(filepath.Join(t.TempDir(), "absent.env"), "SCOPE_EMPTY_KEY")
	require.Error(t, err)
}

func TestLoadKeyEnvWins(t *testing.T) {
	t.Setenv("SCOPE_TEST_KEY2", testKeyHex)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCOPE_TEST_KEY2=zz\n"), 0o600))

	_, err := LoadKey(envFile, "SCOPE_TEST_KEY2")
	require.NoError(t, err)
}
