package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/config"
	"predictionScope/internal/hook"
	"predictionScope/internal/model"
	"predictionScope/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw hook logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/logs.jsonl", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	addLogFlag(decodeCmd.Flags())

	return decodeCmd
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	decoder, err := hook.NewDecoder(hook.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	outWriter, err := storage.OpenJSONL(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.OpenJSONL(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("topic0_overrides", len(cfg.Topic0Map)),
	)

	stats, err := decodeFile(cfg.In, decoder, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

// jsonlWriter is the write side of storage.JSONLWriter.
type jsonlWriter interface {
	Write(value interface{}) error
}

// decodeFile decodes every hook log in path. Logs of other events are
// skipped; malformed or undecodable lines go to errOut and do not stop the run.
func decodeFile(path string, decoder *hook.Decoder, out, errOut jsonlWriter) (decodeStats, error) {
	var stats decodeStats
	err := storage.ScanJSONL(path, func(line []byte) error {
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			return errOut.Write(model.NewDecodeError(stats.total, model.LogRecord{}, err))
		}
		if len(record.Topics) == 0 {
			stats.failed++
			return errOut.Write(model.NewDecodeError(stats.total, record, fmt.Errorf("missing topic0")))
		}
		if !decoder.CanDecode(record.Topics[0]) {
			stats.skipped++
			return nil
		}

		event, err := decoder.Decode(record)
		if err != nil {
			stats.failed++
			return errOut.Write(model.NewDecodeError(stats.total, record, err))
		}
		if err := out.Write(event); err != nil {
			return err
		}
		stats.decoded++
		return nil
	})
	return stats, err
}
