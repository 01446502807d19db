package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"hieragent/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	checkpoints map[string]model.Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.checkpoints = make(map[string]model.Checkpoint)
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.checkpoints[checkpoint.ID] = copyCheckpoint(checkpoint)
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, id string) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Checkpoint{}, false, errors.New("store is not initialized")
	}
	checkpoint, ok := s.checkpoints[id]
	if !ok {
		return model.Checkpoint{}, false, nil
	}
	return copyCheckpoint(checkpoint), true, nil
}

func (s *MemoryStore) ListCheckpoints(_ context.Context) ([]model.CheckpointSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	summaries := make([]model.CheckpointSummary, 0, len(s.checkpoints))
	for _, checkpoint := range s.checkpoints {
		summaries = append(summaries, Summarize(checkpoint))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAtUTC != summaries[j].CreatedAtUTC {
			return summaries[i].CreatedAtUTC > summaries[j].CreatedAtUTC
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// copyCheckpoint deep-copies the weight slices so callers cannot mutate
// stored state through returned values.
func copyCheckpoint(c model.Checkpoint) model.Checkpoint {
	out := c
	out.Params = make([]model.ParamTensor, len(c.Params))
	for i, p := range c.Params {
		out.Params[i] = model.ParamTensor{
			Name:  p.Name,
			Shape: append([]int(nil), p.Shape...),
			Data:  append([]float64(nil), p.Data...),
		}
	}
	return out
}
