package storage

import (
	"encoding/json"
	"errors"

	"hieragent/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCheckpoint(c model.Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.Checkpoint{}, err
	}
	if err := checkVersion(checkpoint.VersionedRecord); err != nil {
		return model.Checkpoint{}, err
	}
	return checkpoint, nil
}

// Summarize strips the weights out of a checkpoint for listing.
func Summarize(c model.Checkpoint) model.CheckpointSummary {
	count := 0
	for _, p := range c.Params {
		count += len(p.Data)
	}
	return model.CheckpointSummary{
		ID:           c.ID,
		CreatedAtUTC: c.CreatedAtUTC,
		Config:       c.Config,
		ParamCount:   count,
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
