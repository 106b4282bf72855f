package config

import (
	"time"

	"github.com/spf13/pflag"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	RPCURL        string
	Interval      time.Duration
	Tolerance     float64
	Once          bool
	Out           string
	PGDSN         string
	NATSURL       string
	SubjectPrefix string
	MetricsAddr   string
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
	Market        Market
}

// LoadWatch merges config file, environment variables, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	defaults := marketDefaults()
	defaults["interval"] = 10 * time.Second
	defaults["tolerance"] = 1.0
	defaults["subject-prefix"] = "pool"
	defaults["max-retries"] = 3
	defaults["retry-backoff"] = 500 * time.Millisecond
	defaults["log-level"] = "info"

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return WatchConfig{}, err
	}

	return WatchConfig{
		RPCURL:        v.GetString("rpc"),
		Interval:      v.GetDuration("interval"),
		Tolerance:     v.GetFloat64("tolerance"),
		Once:          v.GetBool("once"),
		Out:           v.GetString("out"),
		PGDSN:         v.GetString("pg-dsn"),
		NATSURL:       v.GetString("nats-url"),
		SubjectPrefix: v.GetString("subject-prefix"),
		MetricsAddr:   v.GetString("metrics-addr"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
		Market:        loadMarket(v),
	}, nil
}
