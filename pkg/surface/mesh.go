// Package surface provides cortical surface meshes with nearest-vertex
// queries, plus readers and writers for the FreeSurfer binary surface and
// curv (per-vertex overlay) file formats.
package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an immutable triangulated cortical surface. Vertices are
// identified by their index 0..VertexCount()-1. A k-d tree over the vertex
// coordinates answers nearest-vertex queries.
type Mesh struct {
	vertices []r3.Vec
	faces    [][3]int32
	tree     *kdtree.Tree
}

// NewMesh builds a mesh from vertex coordinates and triangle faces and
// indexes the vertices for nearest-vertex queries. The slices are retained
// by the mesh and must not be modified afterwards.
func NewMesh(vertices []r3.Vec, faces [][3]int32) *Mesh {
	m := &Mesh{vertices: vertices, faces: faces}
	if len(vertices) > 0 {
		pts := make(meshVertices, len(vertices))
		for i, v := range vertices {
			pts[i] = meshVertex{pos: [3]float64{v.X, v.Y, v.Z}, idx: i}
		}
		m.tree = kdtree.New(pts, false)
	}
	return m
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// FaceCount returns the number of triangle faces in the mesh.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

// Vertex returns the coordinates of vertex i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return m.vertices[i]
}

// Query finds the nearest mesh vertex for every query point. It returns
// the Euclidean distances and the matching vertex indices, both in query
// order. For an empty mesh every distance is +Inf and every index is -1.
func (m *Mesh) Query(points []r3.Vec) ([]float64, []int) {
	dists := make([]float64, len(points))
	indices := make([]int, len(points))
	for i, p := range points {
		if m.tree == nil {
			dists[i] = math.Inf(1)
			indices[i] = -1
			continue
		}
		got, d2 := m.tree.Nearest(meshVertex{pos: [3]float64{p.X, p.Y, p.Z}, idx: -1})
		dists[i] = math.Sqrt(d2)
		indices[i] = got.(meshVertex).idx
	}
	return dists, indices
}

// meshVertex is a k-d tree element carrying its vertex index.
type meshVertex struct {
	pos [3]float64
	idx int
}

func (v meshVertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(meshVertex)
	return v.pos[d] - q.pos[d]
}

func (v meshVertex) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, per the kdtree contract.
func (v meshVertex) Distance(c kdtree.Comparable) float64 {
	q := c.(meshVertex)
	dx := v.pos[0] - q.pos[0]
	dy := v.pos[1] - q.pos[1]
	dz := v.pos[2] - q.pos[2]
	return dx*dx + dy*dy + dz*dz
}

type meshVertices []meshVertex

func (p meshVertices) Index(i int) kdtree.Comparable { return p[i] }
func (p meshVertices) Len() int                      { return len(p) }
func (p meshVertices) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p meshVertices) Pivot(d kdtree.Dim) int {
	return vertexPlane{Dim: d, meshVertices: p}.Pivot()
}

// vertexPlane sorts meshVertices along a single dimension.
type vertexPlane struct {
	kdtree.Dim
	meshVertices
}

func (p vertexPlane) Less(i, j int) bool {
	return p.meshVertices[i].pos[p.Dim] < p.meshVertices[j].pos[p.Dim]
}
func (p vertexPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	p.meshVertices = p.meshVertices[start:end]
	return p
}
func (p vertexPlane) Swap(i, j int) {
	p.meshVertices[i], p.meshVertices[j] = p.meshVertices[j], p.meshVertices[i]
}
