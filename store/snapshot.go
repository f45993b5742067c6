package store

import (
	"encoding/json"
	"fmt"

	"github.com/aetherdb/aetherdb/op"
)

const snapshotVersion = 1

type snapshot struct {
	Version int                  `json:"version"`
	Tables  map[string]*op.Table `json:"tables"`
}

// Serialize encodes the table catalog for sealing.
func Serialize(tables map[string]*op.Table) ([]byte, error) {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Tables: tables})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Deserialize decodes a snapshot produced by Serialize.
func Deserialize(data []byte) (map[string]*op.Table, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Tables == nil {
		snap.Tables = make(map[string]*op.Table)
	}
	return snap.Tables, nil
}
