package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveSnapshot persists RunState to a JSON file, creating the parent
// directory as needed. Snapshots are a debugging artifact, not a store —
// the session stays memory-resident.
func SaveSnapshot(state RunState, path string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a RunState from a JSON file.
func LoadSnapshot(path string) (RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunState{}, fmt.Errorf("read snapshot: %w", err)
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return RunState{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return state, nil
}
