package storage

import (
	"context"

	"predictionScope/internal/model"
)

// LogSink stores raw hook logs.
type LogSink interface {
	PutLogBatch(logs []model.LogRecord) error
}

// SnapshotSink stores pool snapshots taken by the watcher.
type SnapshotSink interface {
	PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
}
