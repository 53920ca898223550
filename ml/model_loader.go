package ml

import (
	"fmt"
	"os"
)

// LoadModel reads and decodes the artifact at path. A missing file surfaces
// as an error matching fs.ErrNotExist.
func LoadModel(path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	model, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return model, nil
}

// SaveModel encodes m and writes it to path.
func SaveModel(path string, m Model) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
