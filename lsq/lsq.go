// Package lsq solves sparse weighted least-squares problems assembled
// from coefficient triplets. The minimizer of
//
//	sum_r w_r * (A_r·x - b_r)^2
//
// is obtained from the normal equations AᵀWA x = AᵀWb, factorized by
// Cholesky decomposition.
package lsq

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Entry is one coefficient of a sparse matrix in triplet form.
type Entry struct {
	Row, Col int
	Val      float64
}

// ErrSingular is returned when the normal equations are singular or not
// positive definite, for instance when a column of the system is never
// referenced by any row.
var ErrSingular = errors.New("lsq: normal equations singular or not positive definite")

// SolveWeighted returns the dense vector x of length cols minimizing the
// weighted residual sum of squares of the rows×cols system described by
// entries. weights and rhs must both have length rows and weights must
// be non-negative.
func SolveWeighted(entries []Entry, rows, cols int, weights, rhs []float64) ([]float64, error) {
	if len(weights) != rows || len(rhs) != rows {
		return nil, fmt.Errorf("lsq: got %d weights and %d rhs values for %d rows", len(weights), len(rhs), rows)
	}
	if cols <= 0 {
		return nil, fmt.Errorf("lsq: system has %d columns", cols)
	}
	byRow, err := bucketByRow(entries, rows, cols)
	if err != nil {
		return nil, err
	}

	// Accumulate AᵀWA and AᵀWb row by row. Each row contributes the
	// weighted outer product of its sparse coefficients.
	ata := mat.NewSymDense(cols, nil)
	atb := mat.NewVecDense(cols, nil)
	for r, row := range byRow {
		w := weights[r]
		if w == 0 {
			continue
		}
		for _, ei := range row {
			atb.SetVec(ei.Col, atb.AtVec(ei.Col)+w*ei.Val*rhs[r])
			for _, ej := range row {
				if ej.Col < ei.Col {
					continue // upper triangle only.
				}
				ata.SetSym(ei.Col, ej.Col, ata.At(ei.Col, ej.Col)+w*ei.Val*ej.Val)
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ata); !ok {
		return nil, ErrSingular
	}
	x := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(x, atb); err != nil {
		return nil, ErrSingular
	}
	return x.RawVector().Data, nil
}

func bucketByRow(entries []Entry, rows, cols int) ([][]Entry, error) {
	byRow := make([][]Entry, rows)
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows {
			return nil, fmt.Errorf("lsq: entry row %d out of range [0,%d)", e.Row, rows)
		}
		if e.Col < 0 || e.Col >= cols {
			return nil, fmt.Errorf("lsq: entry column %d out of range [0,%d)", e.Col, cols)
		}
		byRow[e.Row] = append(byRow[e.Row], e)
	}
	return byRow, nil
}
