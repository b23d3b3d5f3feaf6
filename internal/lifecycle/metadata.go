package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Metadata is the last-successful-apply record kept inside the
// generated tree.
type Metadata struct {
	// LastApplied is the timestamp of the last successful apply.
	LastApplied time.Time `json:"last_applied"`
}

func writeMetadata(path string) error {
	data, err := json.MarshalIndent(Metadata{LastApplied: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadMetadata loads the apply record. A missing record returns a zero
// Metadata without error.
func ReadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return meta, nil
	}
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return meta, nil
}
