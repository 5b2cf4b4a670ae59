package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"MarketSeasonality/internal/model"
)

// LoadFile reads a snapshot dump. Returns nil without error if the file doesn't exist.
func LoadFile(filePath string) (*model.Snapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filePath, err)
	}
	return &snap, nil
}

// SaveFile writes the snapshot to a JSON file.
func SaveFile(filePath string, snap *model.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
