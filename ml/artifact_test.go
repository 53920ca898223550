package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMatchesOriginal(t *testing.T) {
	tree := NewDecisionTree(3)
	tree.Nodes = []TreeNode{
		{FeatureIdx: 0, Threshold: 10, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: 2, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: 7, IsLeaf: true},
	}

	models := map[string]Model{
		KindLinear: &LinearRegression{Intercept: -1.25, Coef: []float64{0.75}},
		KindTree:   tree,
	}
	for name, original := range models {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(original)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)

			for _, feature := range []float64{-3, 0, 5, 10, 42} {
				want, err := PredictOne(original, feature)
				require.NoError(t, err)
				got, err := PredictOne(decoded, feature)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"text":       []byte("not a model"),
		"truncated":  append([]byte(nil), artifactMagic...),
		"bad header": []byte("DCMODEL\x02payload"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestDecodeRejectsLoopingTree(t *testing.T) {
	data, err := Encode(&DecisionTree{Nodes: []TreeNode{
		{FeatureIdx: 0, LeftChild: 0, RightChild: 0},
	}})
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidArtifact)
}

func TestEncodeUntrained(t *testing.T) {
	_, err := Encode(&LinearRegression{})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model"+ArtifactExt)
	require.NoError(t, SaveModel(path, &LinearRegression{Intercept: 3, Coef: []float64{1}}))

	model, err := LoadModel(path)
	require.NoError(t, err)
	got, err := PredictOne(model, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing"+ArtifactExt))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeRejectsMultiFeatureModels(t *testing.T) {
	models := map[string]Model{
		"linear": &LinearRegression{Intercept: 1, Coef: []float64{1, 2}},
		"tree": &DecisionTree{Nodes: []TreeNode{
			{FeatureIdx: 1, Threshold: 0, LeftChild: 1, RightChild: 2},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: 1, IsLeaf: true},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: 2, IsLeaf: true},
		}},
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(m)
			require.NoError(t, err)

			_, err = Decode(data)
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}
