package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NetworkConfig mirrors the construction-time options of the agent network
// in a persistence-friendly form.
type NetworkConfig struct {
	VocabularySize  int    `json:"vocabulary_size"`
	Encoding        string `json:"encoding"`
	NumInstructions int    `json:"num_instructions"`
	NumObjects      int    `json:"num_objects"`
	NumActions      int    `json:"num_actions"`
	Seed            uint64 `json:"seed"`
}

// ParamTensor is one named learned tensor of the network.
type ParamTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Checkpoint is a full snapshot of a network: its construction config and
// every learned parameter.
type Checkpoint struct {
	VersionedRecord
	ID           string        `json:"id"`
	CreatedAtUTC string        `json:"created_at_utc"`
	Config       NetworkConfig `json:"config"`
	Params       []ParamTensor `json:"params"`
}

// CheckpointSummary is the listing view of a checkpoint, without weights.
type CheckpointSummary struct {
	ID           string        `json:"id"`
	CreatedAtUTC string        `json:"created_at_utc"`
	Config       NetworkConfig `json:"config"`
	ParamCount   int           `json:"param_count"`
}
