package config

import (
	"github.com/spf13/pflag"
)

// ChainConfig holds configuration for the pool and wrap commands, which read
// from the chain and optionally send transactions.
type ChainConfig struct {
	RPCURL   string
	EnvFile  string
	KeyEnv   string
	PGDSN    string
	LogLevel string
	Market   Market
}

// LoadChain merges config file, environment variables, and flags into ChainConfig.
func LoadChain(cfgFile string, flags *pflag.FlagSet) (ChainConfig, error) {
	defaults := marketDefaults()
	defaults["env-file"] = ".env"
	defaults["key-env"] = "PRIVATE_KEY"
	defaults["log-level"] = "info"

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return ChainConfig{}, err
	}

	return ChainConfig{
		RPCURL:   v.GetString("rpc"),
		EnvFile:  v.GetString("env-file"),
		KeyEnv:   v.GetString("key-env"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
		Market:   loadMarket(v),
	}, nil
}
