package ml

import (
	"fmt"
	"sort"
)

// SparseRow is a single feature row of width Dim. Indices are strictly
// increasing; columns not listed are zero.
type SparseRow struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NewSparseRow builds a row from column values, dropping zeros.
func NewSparseRow(dim int, columns map[int]float64) (SparseRow, error) {
	row := SparseRow{Dim: dim}
	for idx := range columns {
		if idx < 0 || idx >= dim {
			return SparseRow{}, fmt.Errorf("%w: column %d outside width %d", ErrDimension, idx, dim)
		}
		if columns[idx] != 0 {
			row.Indices = append(row.Indices, idx)
		}
	}
	sort.Ints(row.Indices)
	row.Values = make([]float64, len(row.Indices))
	for i, idx := range row.Indices {
		row.Values[i] = columns[idx]
	}
	return row, nil
}

// DenseRow wraps a dense vector as a sparse row.
func DenseRow(values []float64) SparseRow {
	row := SparseRow{Dim: len(values)}
	for i, v := range values {
		if v != 0 {
			row.Indices = append(row.Indices, i)
			row.Values = append(row.Values, v)
		}
	}
	return row
}

// At returns the value of column idx.
func (r SparseRow) At(idx int) float64 {
	i := sort.SearchInts(r.Indices, idx)
	if i < len(r.Indices) && r.Indices[i] == idx {
		return r.Values[i]
	}
	return 0
}

func (r SparseRow) Dot(weights []float64) (float64, error) {
	if len(weights) != r.Dim {
		return 0, fmt.Errorf("%w: %d weights for width %d", ErrDimension, len(weights), r.Dim)
	}
	sum := 0.0
	for i, idx := range r.Indices {
		sum += r.Values[i] * weights[idx]
	}
	return sum, nil
}

func (r SparseRow) Dense() []float64 {
	dense := make([]float64, r.Dim)
	for i, idx := range r.Indices {
		dense[idx] = r.Values[i]
	}
	return dense
}

// HStack appends the columns of right after the columns of left.
func HStack(left, right SparseRow) SparseRow {
	out := SparseRow{
		Dim:     left.Dim + right.Dim,
		Indices: make([]int, 0, len(left.Indices)+len(right.Indices)),
		Values:  make([]float64, 0, len(left.Values)+len(right.Values)),
	}
	out.Indices = append(out.Indices, left.Indices...)
	out.Values = append(out.Values, left.Values...)
	for i, idx := range right.Indices {
		out.Indices = append(out.Indices, left.Dim+idx)
		out.Values = append(out.Values, right.Values[i])
	}
	return out
}
