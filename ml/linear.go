package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression is an ordinary least squares model: y = Intercept + x·Coef.
type LinearRegression struct {
	Intercept float64
	Coef      []float64
}

// Fit solves the least squares problem for x (one sample per row) and y.
func (lr *LinearRegression) Fit(x mat.Matrix, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 || len(y) == 0 {
		return errors.New("features or targets empty")
	}
	if rows != len(y) {
		return errors.New("features and targets size mismatch")
	}
	if rows < cols+1 {
		return fmt.Errorf("need at least %d samples, got %d", cols+1, rows)
	}

	design := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < cols; j++ {
			design.Set(i, j+1, x.At(i, j))
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(rows, append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("solve least squares: %w", err)
	}

	lr.Intercept = beta.AtVec(0)
	lr.Coef = make([]float64, cols)
	for j := range lr.Coef {
		lr.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

// Predict returns one output per row of x.
func (lr *LinearRegression) Predict(x mat.Matrix) ([]float64, error) {
	if len(lr.Coef) == 0 {
		return nil, ErrNotTrained
	}
	rows, cols := x.Dims()
	if cols != len(lr.Coef) {
		return nil, fmt.Errorf("expected %d features, got %d", len(lr.Coef), cols)
	}

	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(len(lr.Coef), lr.Coef))

	result := make([]float64, rows)
	for i := range result {
		result[i] = out.AtVec(i) + lr.Intercept
	}
	return result, nil
}
