// Package visualization renders endpoint maps as quick-look images: the
// mesh vertices are projected onto a plane and splatted into a grayscale
// raster weighted by their map values.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
)

// Viewer renders one hemisphere's endpoint map over its surface vertices.
type Viewer struct {
	// vertices holds the surface vertex coordinates
	vertices []r3.Vec

	// values holds the per-vertex map, one entry per vertex
	values []float64

	// size is the output raster edge length in pixels
	size int
}

// NewViewer creates a viewer for a per-vertex map. The values slice must
// have one entry per vertex.
func NewViewer(vertices []r3.Vec, values []float64) (*Viewer, error) {
	if len(vertices) != len(values) {
		return nil, fmt.Errorf("map has %d values for %d vertices", len(values), len(vertices))
	}
	return &Viewer{vertices: vertices, values: values, size: 512}, nil
}

// Project renders the map onto the plane perpendicular to the given axis.
// Axis "x" produces a sagittal view, "y" coronal and "z" axial. Vertices
// with zero value still contribute a faint outline so the surface shape
// stays visible.
func (v *Viewer) Project(axis string) (image.Image, error) {
	var project func(r3.Vec) (float64, float64)
	switch axis {
	case "x", "X":
		project = func(p r3.Vec) (float64, float64) { return p.Y, p.Z }
	case "y", "Y":
		project = func(p r3.Vec) (float64, float64) { return p.X, p.Z }
	case "z", "Z":
		project = func(p r3.Vec) (float64, float64) { return p.X, p.Y }
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if len(v.vertices) == 0 {
		return image.NewGray16(image.Rect(0, 0, v.size, v.size)), nil
	}

	// Fit the projected bounding box into the raster with a small margin.
	minU, minW := math.Inf(1), math.Inf(1)
	maxU, maxW := math.Inf(-1), math.Inf(-1)
	for _, p := range v.vertices {
		pu, pw := project(p)
		minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
		minW, maxW = math.Min(minW, pw), math.Max(maxW, pw)
	}
	span := math.Max(maxU-minU, maxW-minW)
	if span == 0 {
		span = 1
	}
	margin := 8
	scale := float64(v.size-2*margin) / span

	// Splat values into an accumulation buffer.
	buf := make([]float64, v.size*v.size)
	outline := 0.02
	for i, p := range v.vertices {
		pu, pw := project(p)
		px := margin + int((pu-minU)*scale)
		// Raster y grows downward; flip so +w points up.
		py := v.size - 1 - (margin + int((pw-minW)*scale))
		if px < 0 || px >= v.size || py < 0 || py >= v.size {
			continue
		}
		buf[py*v.size+px] += v.values[i] + outline
	}

	peak := 0.0
	for _, b := range buf {
		peak = math.Max(peak, b)
	}

	img := image.NewGray16(image.Rect(0, 0, v.size, v.size))
	if peak == 0 {
		return img, nil
	}
	for y := 0; y < v.size; y++ {
		for x := 0; x < v.size; x++ {
			value := uint16(math.Min(65535, buf[y*v.size+x]/peak*65535))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// SaveProjection renders one projection and saves it as a PNG file.
func (v *Viewer) SaveProjection(axis string, filename string) error {
	img, err := v.Project(axis)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveProjectionSet renders all three projections into outputDir, naming
// the files <prefix>_<axis>.png.
func (v *Viewer) SaveProjectionSet(outputDir string, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for _, axis := range []string{"x", "y", "z"} {
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", prefix, axis))
		if err := v.SaveProjection(axis, filename); err != nil {
			return err
		}
	}
	return nil
}
