package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"predictionScope/internal/chain"
	"predictionScope/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scope",
		Short:        "Prediction market pool and position toolkit",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return loadEnvFile(envFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file with RPC URL and keys")

	root.AddCommand(
		newPoolCmd(),
		newWrapCmd(),
		newIndexCmd(),
		newDecodeCmd(),
		newReplayCmd(),
		newWatchCmd(),
	)
	return root
}

// loadEnvFile exports the dotenv file so SCOPE_* values reach viper.
// Variables already set in the environment are kept.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func addLogFlag(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addMarketFlags(fs *pflag.FlagSet) {
	fs.String("hook", "", "prediction hook address")
	fs.String("yes-token", "", "YES wrapper (ERC-20) address")
	fs.String("no-token", "", "NO wrapper (ERC-20) address")
	fs.Uint32("fee", config.DefaultFee, "pool fee (uint24)")
	fs.Int32("tick-spacing", config.DefaultTickSpacing, "pool tick spacing (int24)")
	fs.String("factory", "", "Wrapped1155Factory address")
	fs.String("multi-token", "", "ERC-1155 position contract address")
	fs.String("yes-id", "", "YES position token id")
	fs.String("no-id", "", "NO position token id")
	fs.String("yes-name", "Wrapped Yes Position", "YES wrapper name")
	fs.String("yes-symbol", "wYES", "YES wrapper symbol")
	fs.String("no-name", "Wrapped No Position", "NO wrapper name")
	fs.String("no-symbol", "wNO", "NO wrapper symbol")
	fs.Uint8("decimals", config.DefaultDecimals, "wrapper decimals")
}

func addChainFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "JSON-RPC URL")
	fs.String("key-env", "PRIVATE_KEY", "environment variable holding the signing key")
	fs.String("pg-dsn", "", "Postgres DSN for recorded wrappers")
	addMarketFlags(fs)
	addLogFlag(fs)
}

// loadChain reads the chain config shared by the pool and wrap commands.
func loadChain(cmd *cobra.Command) (config.ChainConfig, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadChain(cfgFile, cmd.Flags())
	if err != nil {
		return config.ChainConfig{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.ChainConfig{}, nil, err
	}
	return cfg, logger, nil
}

func dial(ctx context.Context, rpcURL string) (*chain.Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	return client, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// parseAmount converts a human amount ("1.5") into base units. A "wei:"
// prefix passes a raw base-unit integer through unchanged.
func parseAmount(input string, decimals uint8) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if raw, ok := strings.CutPrefix(input, "wei:"); ok {
		value, ok := new(big.Int).SetString(raw, 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount: %s", input)
		}
		return value, nil
	}

	value, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", input)
	}
	scaled := value.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", input, decimals)
	}
	return scaled.BigInt(), nil
}

func formatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
