package model

import (
	"errors"
	"fmt"
	"math"
)

// NotAvailable marks an indicator cell that has insufficient history.
// It is a quiet NaN; compare with IsNotAvailable, never with ==.
var NotAvailable = float32(math.NaN())

// IsNotAvailable reports whether v is the "not yet available" sentinel.
func IsNotAvailable(v float32) bool {
	return v != v
}

// ErrShape is returned when matrix dimensions are negative or rows are ragged.
var ErrShape = errors.New("invalid matrix shape")

// Matrix is a dense row-major float32 matrix. Rows are symbols and columns
// are chronologically ordered timesteps.
//
// A Matrix handed to the engine as input is treated as immutable. Matrices
// returned by the engine are owned by the caller.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}, nil
}

// NewMatrixFrom wraps data (row-major, len rows*cols) without copying.
func NewMatrixFrom(rows, cols int, data []float32) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrShape, rows, cols, rows*cols, len(data))
	}
	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

// FromRows copies a nested slice into a new matrix. All rows must have the
// same length.
func FromRows(rows [][]float32) (*Matrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float32, len(rows)*cols)}
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(r), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], r)
	}
	return m, nil
}

// FromFloat64Rows converts a nested float64 slice to single precision.
func FromFloat64Rows(rows [][]float64) (*Matrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float32, len(rows)*cols)}
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(r), cols)
		}
		dst := m.data[i*cols : (i+1)*cols]
		for j, v := range r {
			dst[j] = float32(v)
		}
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Shape returns (rows, cols).
func (m *Matrix) Shape() (int, int) { return m.rows, m.cols }

// Len returns rows*cols.
func (m *Matrix) Len() int { return len(m.data) }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	return m.data[i*m.cols+j]
}

// Set writes the value at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	m.data[i*m.cols+j] = v
}

// Row returns a view of row i. Callers must not modify the view of an
// input matrix.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Data returns the backing row-major slice.
func (m *Matrix) Data() []float32 { return m.data }

// Last returns the final column of row i, or NotAvailable for an empty row.
func (m *Matrix) Last(i int) float32 {
	if m.cols == 0 {
		return NotAvailable
	}
	return m.data[i*m.cols+m.cols-1]
}

// SameShape reports whether m and o have identical dimensions.
func (m *Matrix) SameShape(o *Matrix) bool {
	return m.rows == o.rows && m.cols == o.cols
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	data := make([]float32, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// Float64Row copies row i into a new float64 slice.
func (m *Matrix) Float64Row(i int) []float64 {
	src := m.Row(i)
	out := make([]float64, len(src))
	for j, v := range src {
		out[j] = float64(v)
	}
	return out
}

// BollingerBands holds the three band matrices, all shaped like the input.
type BollingerBands struct {
	Upper  *Matrix
	Middle *Matrix
	Lower  *Matrix
}

// MACD holds the MACD line, its signal line and their difference.
type MACD struct {
	Line      *Matrix
	Signal    *Matrix
	Histogram *Matrix
}
