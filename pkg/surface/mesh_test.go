package surface

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// gridMesh builds a mesh whose vertices lie on a regular n x n x n grid
// with the given spacing. Faces are irrelevant for query tests.
func gridMesh(n int, spacing float64) *Mesh {
	vertices := make([]r3.Vec, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				vertices = append(vertices, r3.Vec{
					X: float64(x) * spacing,
					Y: float64(y) * spacing,
					Z: float64(z) * spacing,
				})
			}
		}
	}
	return NewMesh(vertices, nil)
}

// bruteNearest finds the nearest vertex by linear scan.
func bruteNearest(m *Mesh, p r3.Vec) (float64, int) {
	best, bestIdx := math.Inf(1), -1
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		dx, dy, dz := v.X-p.X, v.Y-p.Y, v.Z-p.Z
		d := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if d < best {
			best, bestIdx = d, i
		}
	}
	return best, bestIdx
}

func TestQueryMatchesBruteForce(t *testing.T) {
	mesh := gridMesh(5, 3.0)

	// Query points chosen off-grid so each has a unique nearest vertex.
	queries := []r3.Vec{
		{X: 0.1, Y: 0.2, Z: 0.3},
		{X: 6.4, Y: 3.1, Z: 9.2},
		{X: 12.9, Y: 12.9, Z: 12.9},
		{X: -2.0, Y: 5.8, Z: 0.4},
		{X: 20.0, Y: 20.0, Z: 20.0},
	}

	dists, indices := mesh.Query(queries)
	if len(dists) != len(queries) || len(indices) != len(queries) {
		t.Fatalf("Query returned %d distances and %d indices for %d points",
			len(dists), len(indices), len(queries))
	}

	for i, q := range queries {
		wantDist, wantIdx := bruteNearest(mesh, q)
		if indices[i] != wantIdx {
			t.Errorf("Query point %d: nearest vertex = %d, want %d", i, indices[i], wantIdx)
		}
		if math.Abs(dists[i]-wantDist) > 1e-10 {
			t.Errorf("Query point %d: distance = %v, want %v", i, dists[i], wantDist)
		}
	}
}

func TestQueryExactVertex(t *testing.T) {
	mesh := gridMesh(3, 2.0)
	dists, indices := mesh.Query([]r3.Vec{mesh.Vertex(7)})
	if indices[0] != 7 {
		t.Errorf("Query at vertex 7 returned vertex %d", indices[0])
	}
	if dists[0] != 0 {
		t.Errorf("Query at vertex 7 returned distance %v, want 0", dists[0])
	}
}

func TestQueryNoPoints(t *testing.T) {
	mesh := gridMesh(2, 1.0)
	dists, indices := mesh.Query(nil)
	if len(dists) != 0 || len(indices) != 0 {
		t.Errorf("Query(nil) returned %d distances and %d indices", len(dists), len(indices))
	}
}

func TestQueryEmptyMesh(t *testing.T) {
	mesh := NewMesh(nil, nil)
	dists, indices := mesh.Query([]r3.Vec{{X: 1, Y: 2, Z: 3}})
	if indices[0] != -1 {
		t.Errorf("Empty mesh returned vertex %d, want -1", indices[0])
	}
	if !math.IsInf(dists[0], 1) {
		t.Errorf("Empty mesh returned distance %v, want +Inf", dists[0])
	}
}
