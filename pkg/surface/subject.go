package surface

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"trk2surf/internal/models"
)

// Subject provides per-hemisphere cortical surfaces from a FreeSurfer
// subject directory (the directory containing surf/, mri/, label/, ...).
type Subject struct {
	dir string
}

// OpenSubject validates that dir looks like a FreeSurfer subject directory
// and returns a Subject for it.
func OpenSubject(dir string) (*Subject, error) {
	surfDir := filepath.Join(dir, "surf")
	info, err := os.Stat(surfDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s is not a FreeSurfer subject directory (no surf/ subdirectory)", dir)
	}
	return &Subject{dir: dir}, nil
}

// SurfacePath returns the path of the on-disk surface file for a
// hemisphere and variant, e.g. <dir>/surf/lh.white.
func (s *Subject) SurfacePath(h models.Hemisphere, variant models.SurfaceVariant) string {
	return filepath.Join(s.dir, "surf", fmt.Sprintf("%s.%s", h, variant))
}

// Surface loads one hemisphere surface. The midgray variant has no
// FreeSurfer file; it is synthesized as the vertex-wise midpoint of the
// white and pial surfaces, which share vertex numbering.
func (s *Subject) Surface(h models.Hemisphere, variant models.SurfaceVariant) (*Mesh, error) {
	if variant != models.SurfaceMidgray {
		return ReadSurface(s.SurfacePath(h, variant))
	}

	white, err := ReadSurface(s.SurfacePath(h, models.SurfaceWhite))
	if err != nil {
		return nil, err
	}
	pial, err := ReadSurface(s.SurfacePath(h, models.SurfacePial))
	if err != nil {
		return nil, err
	}
	if white.VertexCount() != pial.VertexCount() {
		return nil, fmt.Errorf("%s white and pial surfaces disagree on vertex count (%d vs %d)",
			h, white.VertexCount(), pial.VertexCount())
	}

	mid := make([]r3.Vec, white.VertexCount())
	for i := range mid {
		w, p := white.Vertex(i), pial.Vertex(i)
		mid[i] = r3.Vec{X: (w.X + p.X) / 2, Y: (w.Y + p.Y) / 2, Z: (w.Z + p.Z) / 2}
	}
	return NewMesh(mid, white.faces), nil
}

// Hemis loads the requested surface variant for both hemispheres.
func (s *Subject) Hemis(variant models.SurfaceVariant) (map[models.Hemisphere]*Mesh, error) {
	meshes := make(map[models.Hemisphere]*Mesh, 2)
	for _, h := range models.Hemispheres() {
		mesh, err := s.Surface(h, variant)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s %s surface: %v", h, variant, err)
		}
		meshes[h] = mesh
	}
	return meshes, nil
}
