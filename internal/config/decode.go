package config

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In        string
	Out       string
	Errors    string
	LogLevel  string
	Topic0Map map[string]string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":        "./data/logs.jsonl",
		"out":       "./data/typed_events.jsonl",
		"errors":    "./data/decode_errors.jsonl",
		"log-level": "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	return DecodeConfig{
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Errors:    v.GetString("errors"),
		LogLevel:  v.GetString("log-level"),
		Topic0Map: getStringMap(v, "topic0-map"),
	}, nil
}

// getStringMap reads a map given as a YAML mapping or as "k=v,k=v" from a
// flag or env value. Pairs with an empty side are dropped.
func getStringMap(v *viper.Viper, key string) map[string]string {
	out := make(map[string]string)
	if !v.IsSet(key) {
		return out
	}

	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		for _, pair := range strings.Split(s, ",") {
			k, val, _ := strings.Cut(pair, "=")
			addPair(out, k, val)
		}
		return out
	}
	for k, val := range cast.ToStringMapString(raw) {
		addPair(out, k, val)
	}
	return out
}

func addPair(out map[string]string, key, value string) {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key != "" && value != "" {
		out[key] = value
	}
}
