// Package hieragent is the embedding API for the hierarchical agent
// network: construct networks, run forward passes, and persist
// checkpoints through a pluggable store.
package hieragent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hieragent/internal/agent"
	"hieragent/internal/model"
	"hieragent/internal/storage"
	"hieragent/internal/tensor"
)

const defaultDBPath = "hieragent.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// NetworkSpec mirrors agent.Config for callers that should not import
// internal packages.
type NetworkSpec struct {
	VocabularySize  int
	Encoding        string
	NumInstructions int
	NumObjects      int
	NumActions      int
	Seed            uint64
}

type CheckpointInfo struct {
	ID           string
	CreatedAtUTC string
	Spec         NetworkSpec
	ParamCount   int
}

type DescribeSummary struct {
	Spec       NetworkSpec
	Components []ComponentInfo
	ParamCount int
}

type ComponentInfo struct {
	Name   string
	Params int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// InitNetwork constructs a freshly initialized network from the spec and
// persists its parameters as a new checkpoint.
func (c *Client) InitNetwork(ctx context.Context, spec NetworkSpec) (CheckpointInfo, error) {
	network, err := agent.New(configFromSpec(spec))
	if err != nil {
		return CheckpointInfo{}, err
	}

	checkpoint := model.Checkpoint{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           uuid.NewString(),
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Config:       configToRecord(network.Config),
		Params:       network.Parameters(),
	}
	if err := c.store.SaveCheckpoint(ctx, checkpoint); err != nil {
		return CheckpointInfo{}, err
	}
	return CheckpointInfo{
		ID:           checkpoint.ID,
		CreatedAtUTC: checkpoint.CreatedAtUTC,
		Spec:         specFromRecord(checkpoint.Config),
		ParamCount:   network.ParameterCount(),
	}, nil
}

func (c *Client) Checkpoints(ctx context.Context) ([]CheckpointInfo, error) {
	summaries, err := c.store.ListCheckpoints(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CheckpointInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, CheckpointInfo{
			ID:           s.ID,
			CreatedAtUTC: s.CreatedAtUTC,
			Spec:         specFromRecord(s.Config),
			ParamCount:   s.ParamCount,
		})
	}
	return out, nil
}

// Restore rebuilds a network from a stored checkpoint, with the saved
// parameters installed in place of the fresh initialization.
func (c *Client) Restore(ctx context.Context, checkpointID string) (*agent.Network, error) {
	if checkpointID == "" {
		return nil, errors.New("checkpoint id is required")
	}
	checkpoint, ok, err := c.store.GetCheckpoint(ctx, checkpointID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}

	network, err := agent.New(configFromSpec(specFromRecord(checkpoint.Config)))
	if err != nil {
		return nil, err
	}
	if err := network.SetParameters(checkpoint.Params); err != nil {
		return nil, fmt.Errorf("restore checkpoint %s: %w", checkpointID, err)
	}
	return network, nil
}

// Describe reports the per-component parameter breakdown of a stored
// checkpoint, or of a fresh network when checkpointID is empty.
func (c *Client) Describe(ctx context.Context, checkpointID string, spec NetworkSpec) (DescribeSummary, error) {
	var network *agent.Network
	var err error
	if checkpointID != "" {
		network, err = c.Restore(ctx, checkpointID)
	} else {
		network, err = agent.New(configFromSpec(spec))
	}
	if err != nil {
		return DescribeSummary{}, err
	}

	counts := network.ComponentCounts()
	components := make([]ComponentInfo, 0, len(counts))
	for _, cc := range counts {
		components = append(components, ComponentInfo{Name: cc.Name, Params: cc.Params})
	}
	return DescribeSummary{
		Spec:       specFromNetwork(network),
		Components: components,
		ParamCount: network.ParameterCount(),
	}, nil
}

// Decide runs one forward pass on a restored or fresh network. Frames is
// (B, T, 3, 84, 84); instructions is one token list per batch element.
func (c *Client) Decide(ctx context.Context, checkpointID string, spec NetworkSpec, frames *tensor.Tensor, instructions [][]int) (*agent.Decision, error) {
	var network *agent.Network
	var err error
	if checkpointID != "" {
		network, err = c.Restore(ctx, checkpointID)
	} else {
		network, err = agent.New(configFromSpec(spec))
	}
	if err != nil {
		return nil, err
	}
	return network.Forward(frames, instructions)
}

func configFromSpec(spec NetworkSpec) agent.Config {
	return agent.Config{
		VocabularySize:  spec.VocabularySize,
		Encoding:        agent.Encoding(spec.Encoding),
		NumInstructions: spec.NumInstructions,
		NumObjects:      spec.NumObjects,
		NumActions:      spec.NumActions,
		Seed:            spec.Seed,
	}
}

func configToRecord(cfg agent.Config) model.NetworkConfig {
	return model.NetworkConfig{
		VocabularySize:  cfg.VocabularySize,
		Encoding:        string(cfg.Encoding),
		NumInstructions: cfg.NumInstructions,
		NumObjects:      cfg.NumObjects,
		NumActions:      cfg.NumActions,
		Seed:            cfg.Seed,
	}
}

func specFromRecord(rec model.NetworkConfig) NetworkSpec {
	return NetworkSpec{
		VocabularySize:  rec.VocabularySize,
		Encoding:        rec.Encoding,
		NumInstructions: rec.NumInstructions,
		NumObjects:      rec.NumObjects,
		NumActions:      rec.NumActions,
		Seed:            rec.Seed,
	}
}

func specFromNetwork(n *agent.Network) NetworkSpec {
	return NetworkSpec{
		VocabularySize:  n.Config.VocabularySize,
		Encoding:        string(n.Config.Encoding),
		NumInstructions: n.Config.NumInstructions,
		NumObjects:      n.Config.NumObjects,
		NumActions:      n.Config.NumActions,
		Seed:            n.Config.Seed,
	}
}
