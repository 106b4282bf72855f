package replay

import (
	"context"

	"predictionScope/internal/model"
	"predictionScope/internal/storage"
)

// JSONLSink writes window metrics to a JSONL file when no database is
// configured. Pools are not written; each metrics line carries its pool id.
type JSONLSink struct {
	writer *storage.JSONLWriter
}

// NewJSONLSink writes metrics to path, truncating it unless appendMode is set.
func NewJSONLSink(path string, appendMode bool) (*JSONLSink, error) {
	w, err := storage.OpenJSONL(path, appendMode)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{writer: w}, nil
}

func (s *JSONLSink) UpsertPools(context.Context, []model.Pool) error {
	return nil
}

func (s *JSONLSink) UpsertPriceWindowMetrics(_ context.Context, metrics []model.PriceWindowMetrics) error {
	for _, m := range metrics {
		if err := s.writer.Write(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONLSink) Close() error {
	return s.writer.Close()
}
