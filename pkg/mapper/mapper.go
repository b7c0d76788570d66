// Package mapper ties the trk2surf pipeline together: load a tractogram,
// resolve the coordinate transform into surface space, load the subject's
// cortical surfaces, aggregate streamline endpoints into per-vertex maps
// and write the resulting overlays.
package mapper

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"trk2surf/internal/models"
	"trk2surf/pkg/affine"
	"trk2surf/pkg/align"
	"trk2surf/pkg/endpoint"
	"trk2surf/pkg/surface"
	"trk2surf/pkg/trk"
)

// Params holds the endpoint-mapping parameters. They control the
// input/output and processing configuration of a single run.
type Params struct {
	// TrkFile is the TrackVis .trk tractography file to map.
	TrkFile string

	// SubjectDir is the FreeSurfer subject directory providing the
	// cortical surfaces.
	SubjectDir string

	// Surface selects the surface variant the endpoints are matched
	// against: white, midgray or pial.
	Surface string

	// End selects which streamline points become endpoints: head, tail
	// or both.
	End string

	// Output selects the map type: count or pdf.
	Output string

	// DistanceThreshold is the maximum endpoint-to-vertex distance in mm.
	DistanceThreshold float64

	// RefVolume is an optional NIfTI volume whose grid defines the
	// surface-space alignment. When empty, the transform stored in the
	// trk header is used instead (if present).
	RefVolume string

	// OutputDir is where the per-hemisphere overlay files are written.
	// When empty, no files are written.
	OutputDir string
}

// Mapper runs the endpoint-mapping pipeline:
// 1. Loading the tractogram
// 2. Resolving the coordinate transform into surface space
// 3. Loading the per-hemisphere cortical surfaces
// 4. Aggregating endpoints into per-vertex maps
// 5. Writing overlay files and computing summary statistics
type Mapper struct {
	// params stores the run configuration
	params *Params

	// tract holds the loaded tractogram
	tract *trk.Tractogram

	// meshes holds the per-hemisphere surfaces
	meshes map[models.Hemisphere]*surface.Mesh

	// maps holds the computed per-hemisphere endpoint maps
	maps map[models.Hemisphere][]float64

	// summaries holds the per-hemisphere map statistics
	summaries map[models.Hemisphere]endpoint.MapSummary
}

// NewMapper creates a new mapper instance with the provided parameters.
func NewMapper(params *Params) *Mapper {
	return &Mapper{params: params}
}

// Process runs the complete endpoint-mapping pipeline.
func (m *Mapper) Process() error {
	// Validate the option enums before touching any input files.
	end, err := endpoint.ParseEndSelector(m.params.End)
	if err != nil {
		return err
	}
	mode, err := endpoint.ParseOutputMode(m.params.Output)
	if err != nil {
		return err
	}
	variant, err := models.ParseSurfaceVariant(m.params.Surface)
	if err != nil {
		return err
	}

	// Step 1: Load the tractogram
	log.Infof("Step 1: Loading tractogram from %s...", m.params.TrkFile)
	m.tract, err = trk.Read(m.params.TrkFile)
	if err != nil {
		return fmt.Errorf("failed to load tractogram: %v", err)
	}
	log.Infof("Loaded %d streamlines", len(m.tract.Streamlines))

	// Step 2: Resolve the transform into surface space
	log.Info("Step 2: Resolving coordinate transform...")
	aff, err := m.resolveAffine()
	if err != nil {
		return fmt.Errorf("failed to resolve coordinate transform: %v", err)
	}

	// Step 3: Load the per-hemisphere surfaces
	log.Infof("Step 3: Loading %s surfaces from %s...", variant, m.params.SubjectDir)
	subj, err := surface.OpenSubject(m.params.SubjectDir)
	if err != nil {
		return fmt.Errorf("failed to open subject: %v", err)
	}
	m.meshes, err = subj.Hemis(variant)
	if err != nil {
		return fmt.Errorf("failed to load surfaces: %v", err)
	}

	// Step 4: Aggregate endpoints into per-vertex maps
	log.Info("Step 4: Aggregating streamline endpoints...")
	indexes := make(map[models.Hemisphere]endpoint.VertexIndex, len(m.meshes))
	for h, mesh := range m.meshes {
		indexes[h] = mesh
	}
	m.maps, err = endpoint.MapsFromSource(indexes, m.tract, endpoint.Options{
		End:               end,
		DistanceThreshold: m.params.DistanceThreshold,
		Affine:            aff,
		Mode:              mode,
	})
	if err != nil {
		return fmt.Errorf("failed to aggregate endpoints: %v", err)
	}

	// Step 5: Summaries and overlay output
	log.Info("Step 5: Computing summaries and writing overlays...")
	m.summaries = make(map[models.Hemisphere]endpoint.MapSummary, len(m.maps))
	for h, values := range m.maps {
		m.summaries[h] = endpoint.Summarize(values)
	}
	if m.params.OutputDir != "" {
		if err := m.writeOverlays(); err != nil {
			return fmt.Errorf("failed to write overlays: %v", err)
		}
	}

	return nil
}

// resolveAffine picks the transform applied to the endpoints before the
// nearest-vertex queries. A reference volume takes precedence; otherwise
// the trk header's vox_to_ras matrix is used when it was recorded.
// Without either, endpoints are assumed to already be in surface space.
func (m *Mapper) resolveAffine() (*affine.Affine, error) {
	if m.params.RefVolume != "" {
		tkr, err := align.SurfaceAffine(m.params.RefVolume)
		if err != nil {
			return nil, err
		}
		toVoxel, err := m.tract.Header.VoxmmToVoxel()
		if err != nil {
			return nil, err
		}
		return tkr.Mul(toVoxel), nil
	}

	aff, err := m.tract.Header.AffineToRAS()
	if err != nil {
		log.Warnf("No usable transform in trk header (%v); assuming streamlines are already in surface space", err)
		return nil, nil
	}
	return aff, nil
}

// writeOverlays saves each hemisphere map as a FreeSurfer curv overlay,
// e.g. lh.endpoints.count. A failure for either hemisphere aborts the run.
func (m *Mapper) writeOverlays() error {
	if err := os.MkdirAll(m.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}
	for h, values := range m.maps {
		path := m.OverlayPath(h)
		if err := surface.WriteCurv(path, values, m.meshes[h].FaceCount()); err != nil {
			return err
		}
		log.Infof("Wrote %s", path)
	}
	return nil
}

// OverlayPath returns the output overlay filename for a hemisphere,
// e.g. <dir>/lh.endpoints.count.
func (m *Mapper) OverlayPath(h models.Hemisphere) string {
	return filepath.Join(m.params.OutputDir, fmt.Sprintf("%s.endpoints.%s", h, m.params.Output))
}

// GetMaps returns the computed per-hemisphere endpoint maps.
func (m *Mapper) GetMaps() map[models.Hemisphere][]float64 {
	return m.maps
}

// GetSummaries returns the per-hemisphere map statistics.
func (m *Mapper) GetSummaries() map[models.Hemisphere]endpoint.MapSummary {
	return m.summaries
}

// GetMeshes returns the loaded per-hemisphere surfaces.
func (m *Mapper) GetMeshes() map[models.Hemisphere]*surface.Mesh {
	return m.meshes
}
