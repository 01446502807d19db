package storage

import (
	"context"

	"hieragent/internal/model"
)

// Store persists network checkpoints for the CLI and external harnesses.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, id string) (model.Checkpoint, bool, error)
	ListCheckpoints(ctx context.Context) ([]model.CheckpointSummary, error)
}
