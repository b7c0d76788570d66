// Package endpoint converts tractography streamline endpoints into
// per-vertex cortical surface maps. Each endpoint is assigned to its
// nearest surface vertex, endpoints beyond a distance cutoff are
// discarded, and the retained assignments are tallied per hemisphere
// into counts or normalized densities.
package endpoint

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"trk2surf/internal/models"
	"trk2surf/pkg/affine"
)

// VertexIndex is the nearest-vertex query capability a hemisphere surface
// provides. surface.Mesh implements it; tests substitute fakes.
type VertexIndex interface {
	// VertexCount returns the number of vertices in the surface.
	VertexCount() int

	// Query returns, for every query point, the Euclidean distance to
	// its nearest vertex and that vertex's index.
	Query(points []r3.Vec) (dists []float64, indices []int)
}

// Source yields streamlines in canonical form. A loaded tractography file
// (trk.Tractogram) satisfies it.
type Source interface {
	StreamlineData() []models.Streamline
}

// Options configures a Maps call.
type Options struct {
	// End selects which streamline point(s) become endpoints.
	End EndSelector

	// DistanceThreshold is the cutoff in the same units as the surface
	// coordinates (mm): endpoints whose nearest-vertex distance is not
	// strictly below it are discarded from that hemisphere's map.
	DistanceThreshold float64

	// Affine, when non-nil, is applied to every endpoint before any
	// hemisphere is queried.
	Affine *affine.Affine

	// Mode selects count or normalized-density output.
	Mode OutputMode
}

// Maps computes one endpoint map per hemisphere. The returned mapping has
// exactly the keys of meshes; each vector's length equals that
// hemisphere's vertex count. Hemispheres are independent: an endpoint
// discarded from one map for distance may still land in the other.
//
// Maps is a pure function of its inputs: streamlines are never modified
// and every call produces fresh vectors.
func Maps(meshes map[models.Hemisphere]VertexIndex, streamlines []models.Streamline, opts Options) (map[models.Hemisphere][]float64, error) {
	if !opts.Mode.valid() {
		return nil, &InvalidArgumentError{
			Name:     "output mode",
			Value:    opts.Mode.String(),
			Accepted: []string{"count", "pdf"},
		}
	}
	if !opts.End.valid() {
		return nil, &InvalidArgumentError{
			Name:     "streamline end",
			Value:    opts.End.String(),
			Accepted: []string{"head", "tail", "both"},
		}
	}

	endpoints := selectEndpoints(streamlines, opts.End)
	if opts.Affine != nil {
		endpoints = opts.Affine.Apply(endpoints)
	}

	out := make(map[models.Hemisphere][]float64, len(meshes))
	for h, mesh := range meshes {
		out[h] = mapHemisphere(mesh, endpoints, opts)
	}
	return out, nil
}

// MapsFromSource normalizes a streamline container to the canonical slice
// form and calls Maps.
func MapsFromSource(meshes map[models.Hemisphere]VertexIndex, src Source, opts Options) (map[models.Hemisphere][]float64, error) {
	return Maps(meshes, src.StreamlineData(), opts)
}

// selectEndpoints gathers the endpoint batch. For EndBoth the heads come
// first, then the tails.
func selectEndpoints(streamlines []models.Streamline, end EndSelector) []r3.Vec {
	n := len(streamlines)
	if end == EndBoth {
		n *= 2
	}
	endpoints := make([]r3.Vec, 0, n)
	if end == EndHead || end == EndBoth {
		for _, sl := range streamlines {
			endpoints = append(endpoints, sl.Head())
		}
	}
	if end == EndTail || end == EndBoth {
		for _, sl := range streamlines {
			endpoints = append(endpoints, sl.Tail())
		}
	}
	return endpoints
}

// mapHemisphere assigns endpoints to nearest vertices, discards those at
// or beyond the distance threshold, and tallies the rest. A PDF map with
// zero retained endpoints stays all-zero rather than dividing by zero.
func mapHemisphere(mesh VertexIndex, endpoints []r3.Vec, opts Options) []float64 {
	values := make([]float64, mesh.VertexCount())
	dists, indices := mesh.Query(endpoints)

	retained := 0.0
	for i, d := range dists {
		if d >= opts.DistanceThreshold {
			continue
		}
		idx := indices[i]
		if idx < 0 || idx >= len(values) {
			continue
		}
		values[idx]++
		retained++
	}

	if opts.Mode == ModePDF && retained > 0 {
		floats.Scale(1/retained, values)
	}
	return values
}
