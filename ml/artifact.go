package ml

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// ArtifactExt is the file extension of serialized models.
const ArtifactExt = ".gob"

// Model kinds stored in an artifact.
const (
	KindLinear = "linear"
	KindTree   = "tree"
)

// ErrInvalidArtifact wraps every failure to turn bytes into a usable Model.
var ErrInvalidArtifact = errors.New("invalid model artifact")

var artifactMagic = []byte("DCMODEL\x01")

type artifact struct {
	Kind   string
	Linear *LinearRegression
	Tree   *DecisionTree
}

// Encode serializes a fitted model.
func Encode(m Model) ([]byte, error) {
	var a artifact
	switch model := m.(type) {
	case *LinearRegression:
		if len(model.Coef) == 0 {
			return nil, ErrNotTrained
		}
		a = artifact{Kind: KindLinear, Linear: model}
	case *DecisionTree:
		if len(model.Nodes) == 0 {
			return nil, ErrNotTrained
		}
		a = artifact{Kind: KindTree, Tree: model}
	default:
		return nil, fmt.Errorf("unsupported model type %T", m)
	}

	var buf bytes.Buffer
	buf.Write(artifactMagic)
	if err := gob.NewEncoder(&buf).Encode(&a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses bytes produced by Encode. Only models taking a single feature
// are accepted. All errors wrap ErrInvalidArtifact.
func Decode(data []byte) (Model, error) {
	if !bytes.HasPrefix(data, artifactMagic) {
		return nil, fmt.Errorf("%w: unrecognized header", ErrInvalidArtifact)
	}

	var a artifact
	if err := gob.NewDecoder(bytes.NewReader(data[len(artifactMagic):])).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	switch a.Kind {
	case KindLinear:
		if a.Linear == nil || len(a.Linear.Coef) == 0 {
			return nil, fmt.Errorf("%w: linear model has no coefficients", ErrInvalidArtifact)
		}
		if len(a.Linear.Coef) != 1 {
			return nil, fmt.Errorf("%w: linear model expects %d features, want 1", ErrInvalidArtifact, len(a.Linear.Coef))
		}
		return a.Linear, nil
	case KindTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%w: tree model missing", ErrInvalidArtifact)
		}
		if err := a.Tree.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if err := a.Tree.singleFeature(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return a.Tree, nil
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrInvalidArtifact, a.Kind)
	}
}
