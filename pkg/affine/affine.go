// Package affine provides canonical 4x4 homogeneous transforms over 3-D
// point batches. It is the coordinate-transform layer used to carry
// tractography coordinates between voxel, scanner and surface spaces.
package affine

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Affine is an immutable 4x4 homogeneous transform. The bottom row is
// always (0, 0, 0, 1), so applying it never requires a perspective divide.
type Affine struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() *Affine {
	return &Affine{m: mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})}
}

// FromRows resolves an affine specification given as rows into canonical
// 4x4 form. Accepted shapes are 4x4 (with a (0,0,0,1) bottom row) and 3x4
// (the bottom row is appended). Anything else is rejected.
func FromRows(rows [][]float64) (*Affine, error) {
	if len(rows) != 3 && len(rows) != 4 {
		return nil, fmt.Errorf("affine must have 3 or 4 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 4 {
			return nil, fmt.Errorf("affine row %d must have 4 columns, got %d", i, len(row))
		}
	}
	if len(rows) == 4 {
		b := rows[3]
		if b[0] != 0 || b[1] != 0 || b[2] != 0 || b[3] != 1 {
			return nil, fmt.Errorf("affine bottom row must be (0, 0, 0, 1), got %v", b)
		}
	}

	data := make([]float64, 16)
	for i := 0; i < 3; i++ {
		copy(data[i*4:], rows[i])
	}
	data[15] = 1
	return &Affine{m: mat.NewDense(4, 4, data)}, nil
}

// Translation returns the transform that adds v to every point.
func Translation(v r3.Vec) *Affine {
	a := Identity()
	a.m.Set(0, 3, v.X)
	a.m.Set(1, 3, v.Y)
	a.m.Set(2, 3, v.Z)
	return a
}

// Scale returns the transform that scales each axis independently.
func Scale(sx, sy, sz float64) *Affine {
	a := Identity()
	a.m.Set(0, 0, sx)
	a.m.Set(1, 1, sy)
	a.m.Set(2, 2, sz)
	return a
}

// At returns the matrix entry at row i, column j.
func (a *Affine) At(i, j int) float64 {
	return a.m.At(i, j)
}

// ApplyPoint transforms a single point.
func (a *Affine) ApplyPoint(p r3.Vec) r3.Vec {
	m := a.m
	return r3.Vec{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}

// Apply transforms a batch of points, returning a fresh slice.
// The input slice is never modified.
func (a *Affine) Apply(points []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = a.ApplyPoint(p)
	}
	return out
}

// Mul composes two transforms. The result applies b first, then a.
func (a *Affine) Mul(b *Affine) *Affine {
	var c mat.Dense
	c.Mul(a.m, b.m)
	return &Affine{m: &c}
}

// String formats the matrix for logging.
func (a *Affine) String() string {
	return fmt.Sprintf("%.4g", mat.Formatted(a.m))
}
