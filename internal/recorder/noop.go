package recorder

import (
	"context"

	"github.com/google/uuid"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ context.Context, _ *SignalEvent) error { return nil }

// RecordBacktest still hands out an ID so callers can reference the run in replies.
func (n *NoopRecorder) RecordBacktest(_ context.Context, _ *BacktestRun) (string, error) {
	return uuid.NewString(), nil
}

func (n *NoopRecorder) RecentSignals(_ context.Context, _ string, _ int) ([]SignalRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
