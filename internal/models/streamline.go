package models

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Streamline represents a single tractography fiber path as an ordered
// sequence of 3-D points. Streamlines are assumed non-empty; only the
// head and tail points participate in endpoint mapping.
type Streamline []r3.Vec

// Head returns the first point of the streamline.
func (s Streamline) Head() r3.Vec {
	return s[0]
}

// Tail returns the last point of the streamline.
func (s Streamline) Tail() r3.Vec {
	return s[len(s)-1]
}

// Hemisphere identifies one half of the cortical surface.
// The two hemispheres are always processed independently.
type Hemisphere string

const (
	// LeftHemisphere is the left cortical hemisphere ("lh" in FreeSurfer naming).
	LeftHemisphere Hemisphere = "lh"

	// RightHemisphere is the right cortical hemisphere ("rh" in FreeSurfer naming).
	RightHemisphere Hemisphere = "rh"
)

// Hemispheres returns both hemisphere labels in conventional order.
func Hemispheres() []Hemisphere {
	return []Hemisphere{LeftHemisphere, RightHemisphere}
}

// SurfaceVariant names one of the cortical surfaces FreeSurfer
// reconstructs for each hemisphere.
type SurfaceVariant string

const (
	// SurfaceWhite is the white-matter / gray-matter boundary surface.
	SurfaceWhite SurfaceVariant = "white"

	// SurfaceMidgray is the surface halfway between white and pial.
	// FreeSurfer does not store it on disk; it is synthesized on load.
	SurfaceMidgray SurfaceVariant = "midgray"

	// SurfacePial is the pial (outer gray-matter) surface.
	SurfacePial SurfaceVariant = "pial"
)

// ParseSurfaceVariant converts a surface name into a SurfaceVariant,
// rejecting anything other than the three known surfaces.
func ParseSurfaceVariant(name string) (SurfaceVariant, error) {
	switch SurfaceVariant(name) {
	case SurfaceWhite, SurfaceMidgray, SurfacePial:
		return SurfaceVariant(name), nil
	}
	return "", fmt.Errorf("surface must be 'white', 'midgray' or 'pial', got %q", name)
}
