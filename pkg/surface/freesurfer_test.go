package surface

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"trk2surf/internal/models"
)

// writeTriangleSurface writes a FreeSurfer binary triangle surface file,
// mirroring the on-disk format ReadSurface parses.
func writeTriangleSurface(t *testing.T, path string, vertices []r3.Vec, faces [][3]int32) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create surface file: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeInt24(w, triangleMagic); err != nil {
		t.Fatalf("Failed to write magic: %v", err)
	}
	if _, err := w.WriteString("created by trk2surf tests\n\n"); err != nil {
		t.Fatalf("Failed to write creator stamp: %v", err)
	}
	if err := binary.Write(w, binary.BigEndian, []int32{int32(len(vertices)), int32(len(faces))}); err != nil {
		t.Fatalf("Failed to write counts: %v", err)
	}
	coords := make([]float32, 0, 3*len(vertices))
	for _, v := range vertices {
		coords = append(coords, float32(v.X), float32(v.Y), float32(v.Z))
	}
	if err := binary.Write(w, binary.BigEndian, coords); err != nil {
		t.Fatalf("Failed to write coordinates: %v", err)
	}
	indices := make([]int32, 0, 3*len(faces))
	for _, face := range faces {
		indices = append(indices, face[0], face[1], face[2])
	}
	if err := binary.Write(w, binary.BigEndian, indices); err != nil {
		t.Fatalf("Failed to write faces: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush surface file: %v", err)
	}
}

// testVertices is a small tetrahedron-like vertex set used across tests.
var testVertices = []r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 10, Y: 0, Z: 0},
	{X: 0, Y: 10, Z: 0},
	{X: 0, Y: 0, Z: 10},
}

var testFaces = [][3]int32{
	{0, 1, 2},
	{0, 1, 3},
	{0, 2, 3},
	{1, 2, 3},
}

func TestReadSurface(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lh.white")
	writeTriangleSurface(t, path, testVertices, testFaces)

	mesh, err := ReadSurface(path)
	if err != nil {
		t.Fatalf("Failed to read surface: %v", err)
	}
	if mesh.VertexCount() != len(testVertices) {
		t.Fatalf("VertexCount = %d, want %d", mesh.VertexCount(), len(testVertices))
	}
	if mesh.FaceCount() != len(testFaces) {
		t.Fatalf("FaceCount = %d, want %d", mesh.FaceCount(), len(testFaces))
	}
	for i, want := range testVertices {
		got := mesh.Vertex(i)
		if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 || math.Abs(got.Z-want.Z) > 1e-6 {
			t.Errorf("Vertex %d = %v, want %v", i, got, want)
		}
	}
}

func TestReadSurfaceRejectsQuad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lh.white")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := writeInt24(f, quadMagic); err != nil {
		t.Fatalf("Failed to write magic: %v", err)
	}
	f.Close()

	if _, err := ReadSurface(path); err == nil {
		t.Error("Expected error reading a quadrangle-format surface")
	}
}

func TestReadSurfaceRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-surface")
	if err := os.WriteFile(path, []byte("plain text, not a surface"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := ReadSurface(path); err == nil {
		t.Error("Expected error reading a non-surface file")
	}
}

func TestCurvRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lh.endpoints.count")
	values := []float64{0, 2, 1, 3}

	if err := WriteCurv(path, values, len(testFaces)); err != nil {
		t.Fatalf("Failed to write curv file: %v", err)
	}
	got, err := ReadCurv(path)
	if err != nil {
		t.Fatalf("Failed to read curv file: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("ReadCurv returned %d values, want %d", len(got), len(values))
	}
	for i := range values {
		if math.Abs(got[i]-values[i]) > 1e-6 {
			t.Errorf("Value %d = %v, want %v", i, got[i], values[i])
		}
	}
}

// newTestSubject lays out a minimal FreeSurfer subject directory with
// white and pial surfaces for both hemispheres.
func newTestSubject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	surfDir := filepath.Join(dir, "surf")
	if err := os.MkdirAll(surfDir, 0755); err != nil {
		t.Fatalf("Failed to create surf dir: %v", err)
	}

	pial := make([]r3.Vec, len(testVertices))
	for i, v := range testVertices {
		// Pial sits 2mm out along x from the white surface.
		pial[i] = r3.Vec{X: v.X + 2, Y: v.Y, Z: v.Z}
	}
	for _, h := range models.Hemispheres() {
		writeTriangleSurface(t, filepath.Join(surfDir, string(h)+".white"), testVertices, testFaces)
		writeTriangleSurface(t, filepath.Join(surfDir, string(h)+".pial"), pial, testFaces)
	}
	return dir
}

func TestSubjectSurfaces(t *testing.T) {
	dir := newTestSubject(t)
	subj, err := OpenSubject(dir)
	if err != nil {
		t.Fatalf("Failed to open subject: %v", err)
	}

	t.Run("White", func(t *testing.T) {
		mesh, err := subj.Surface(models.LeftHemisphere, models.SurfaceWhite)
		if err != nil {
			t.Fatalf("Failed to load lh white surface: %v", err)
		}
		if mesh.VertexCount() != len(testVertices) {
			t.Errorf("VertexCount = %d, want %d", mesh.VertexCount(), len(testVertices))
		}
	})

	t.Run("Midgray", func(t *testing.T) {
		mesh, err := subj.Surface(models.RightHemisphere, models.SurfaceMidgray)
		if err != nil {
			t.Fatalf("Failed to load rh midgray surface: %v", err)
		}
		// Midgray vertices sit halfway between white and pial (+1mm in x).
		got := mesh.Vertex(0)
		if math.Abs(got.X-1) > 1e-6 || math.Abs(got.Y) > 1e-6 || math.Abs(got.Z) > 1e-6 {
			t.Errorf("Midgray vertex 0 = %v, want (1, 0, 0)", got)
		}
	})

	t.Run("BothHemispheres", func(t *testing.T) {
		meshes, err := subj.Hemis(models.SurfaceWhite)
		if err != nil {
			t.Fatalf("Failed to load hemispheres: %v", err)
		}
		if len(meshes) != 2 {
			t.Fatalf("Hemis returned %d meshes, want 2", len(meshes))
		}
		for _, h := range models.Hemispheres() {
			if meshes[h] == nil {
				t.Errorf("Missing mesh for hemisphere %s", h)
			}
		}
	})
}

func TestOpenSubjectRejectsPlainDir(t *testing.T) {
	if _, err := OpenSubject(t.TempDir()); err == nil {
		t.Error("Expected error opening a directory without surf/")
	}
}
