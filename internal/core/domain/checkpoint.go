package domain

import "fmt"

// Checkpoint holds the corpus-level intermediate artifacts of a build.
// Passages and Metadata are parallel arrays.
type Checkpoint struct {
	// Passages is the ordered passage text list.
	Passages []string

	// Metadata describes Passages[i] at index i.
	Metadata []PassageMetadata

	// Entities is the deduplicated lemmatised entity list.
	Entities []string
}

// Validate returns ErrCheckpointMismatch when the parallel arrays disagree.
func (c *Checkpoint) Validate() error {
	if len(c.Passages) != len(c.Metadata) {
		return fmt.Errorf("%w: %d passages, %d metadata records",
			ErrCheckpointMismatch, len(c.Passages), len(c.Metadata))
	}
	return nil
}

// Matrix is a dense row-major float32 matrix. Row i is the embedding of
// passage i.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// NewMatrix packs equal-length vectors into a matrix.
func NewMatrix(vectors [][]float32) (Matrix, error) {
	if len(vectors) == 0 {
		return Matrix{}, nil
	}
	dim := len(vectors[0])
	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return Matrix{}, fmt.Errorf("%w: row %d has dimension %d, expected %d",
				ErrInvalidInput, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return Matrix{Rows: len(vectors), Dim: dim, Data: data}, nil
}

// Row returns a view of row i.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// CheckRows returns ErrCheckpointMismatch if the matrix does not have
// exactly want rows.
func (m Matrix) CheckRows(want int) error {
	if m.Rows != want {
		return fmt.Errorf("%w: %d embedding rows, %d passages",
			ErrCheckpointMismatch, m.Rows, want)
	}
	if m.Rows < 0 || m.Dim < 0 || len(m.Data) != m.Rows*m.Dim {
		return fmt.Errorf("%w: %d values for %dx%d matrix",
			ErrCheckpointMismatch, len(m.Data), m.Rows, m.Dim)
	}
	return nil
}
