package storage

import (
	"errors"
	"fmt"

	"delaycast/ml"
)

var (
	// ErrInvalidFormat is returned when an upload does not carry the artifact extension.
	ErrInvalidFormat = fmt.Errorf("envie um arquivo %s", ml.ArtifactExt)
	// ErrNotLoaded is returned when no model was ever persisted.
	ErrNotLoaded = errors.New("modelo não carregado")
)

// DeserializationError reports an artifact that could not be decoded.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("erro ao ler modelo: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
