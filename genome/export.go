package genome

import (
	"encoding/json"
	"fmt"
)

// ExportVersion is the current blueprint export format version.
const ExportVersion = 2

// Export is the persisted form of a blueprint: everything heritable,
// versioned for forward compatibility. It round-trips through JSON
// losslessly for all numeric and categorical fields.
type Export struct {
	Version   int       `json:"version"`
	Blueprint Blueprint `json:"blueprint"`
}

// ExportJSON serializes the blueprint for saving or cross-creature use.
func ExportJSON(b *Blueprint) ([]byte, error) {
	e := Export{Version: ExportVersion, Blueprint: *b.Clone()}
	data, err := json.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encoding blueprint: %w", err)
	}
	return data, nil
}

// ImportJSON deserializes and sanitizes an exported blueprint. Versions
// newer than this build are rejected; older versions are accepted and
// rely on Sanitize to fill gaps.
func ImportJSON(data []byte) (*Blueprint, error) {
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding blueprint: %w", err)
	}
	if e.Version > ExportVersion {
		return nil, fmt.Errorf("blueprint version %d is newer than supported %d", e.Version, ExportVersion)
	}
	b := e.Blueprint.Clone()
	b.Sanitize()
	return b, nil
}
