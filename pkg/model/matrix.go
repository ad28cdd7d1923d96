package model

import (
	"errors"
	"fmt"
)

// ErrRaggedRows is returned by FromRows when rows differ in length
var ErrRaggedRows = errors.New("model: rows have different lengths")

// Matrix is a dense row-major 2-D array with an explicit shape.
// For an Outcome Matrix Rows is the number of time steps (T) and Cols the
// number of entities (N).
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrix allocates a zero-filled rows x cols matrix
func NewMatrix(rows, cols int) Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// FromRows copies a slice of equally sized rows into a new Matrix
func FromRows(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}

	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return Matrix{}, fmt.Errorf("row %d has %d values, want %d: %w", i, len(r), cols, ErrRaggedRows)
		}
		copy(m.Data[i*cols:(i+1)*cols], r)
	}

	return m, nil
}

// Shape returns (rows, cols)
func (m Matrix) Shape() (int, int) {
	return m.Rows, m.Cols
}

// At returns the value at row i, column j
func (m Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set writes the value at row i, column j
func (m Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Row returns a copy of row i
func (m Matrix) Row(i int) []float64 {
	result := make([]float64, m.Cols)
	copy(result, m.Data[i*m.Cols:(i+1)*m.Cols])
	return result
}

// Column returns a copy of column j
func (m Matrix) Column(j int) []float64 {
	result := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		result[i] = m.Data[i*m.Cols+j]
	}
	return result
}

// Transpose returns a new cols x rows matrix
func (m Matrix) Transpose() Matrix {
	t := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			t.Data[j*m.Rows+i] = m.Data[i*m.Cols+j]
		}
	}
	return t
}

// Clone creates a deep copy of the matrix
func (m Matrix) Clone() Matrix {
	c := Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// ToRows returns the matrix as a slice of row copies
func (m Matrix) ToRows() [][]float64 {
	rows := make([][]float64, m.Rows)
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// FlattenEntityMajor returns the values column by column: all rows of
// column 0, then all rows of column 1, and so on. For an Outcome Matrix this
// lays out each entity's history contiguously with time varying fastest.
func (m Matrix) FlattenEntityMajor() []float64 {
	return m.Transpose().Data
}
