package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDecisionTreeFitPredict(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{0, 10, 20, 180, 190, 200})
	y := []float64{1, 1, 1, 9, 9, 9}

	model := NewDecisionTree(2)
	require.NoError(t, model.Fit(x, y))

	got, err := model.Predict(mat.NewDense(2, 1, []float64{5, 195}))
	require.NoError(t, err)
	assert.InDelta(t, 1, got[0], 1e-9)
	assert.InDelta(t, 9, got[1], 1e-9)
}

func TestDecisionTreeDeepIndices(t *testing.T) {
	x := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := []float64{10, 20, 30, 40, 50, 60, 70, 80}

	model := NewDecisionTree(4)
	require.NoError(t, model.Fit(x, y))
	require.NoError(t, model.validate())

	for i, want := range y {
		got, err := PredictOne(model, float64(i+1))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "feature %d", i+1)
	}
}

func TestDecisionTreeUntrained(t *testing.T) {
	_, err := (&DecisionTree{}).Predict(mat.NewDense(1, 1, []float64{1}))
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestDecisionTreeFitErrors(t *testing.T) {
	model := NewDecisionTree(3)
	assert.Error(t, model.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{1}))
}
