package ml

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNotTrained is returned by models that have no fitted parameters yet.
var ErrNotTrained = errors.New("model not trained")

// Model is a fitted regressor. Predict returns one output per row of x.
type Model interface {
	Predict(x mat.Matrix) ([]float64, error)
}

// Trainer is a Model that can be fitted in-process.
type Trainer interface {
	Model
	Fit(x mat.Matrix, y []float64) error
}

// PredictOne feeds a single feature value to m as a 1x1 input and returns the
// only output. The value is not checked; NaN and Inf reach the model as is.
func PredictOne(m Model, feature float64) (float64, error) {
	x := mat.NewDense(1, 1, []float64{feature})
	out, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, errors.New("model returned no output")
	}
	return out[0], nil
}
