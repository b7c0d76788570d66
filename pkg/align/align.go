// Package align derives the transforms that carry tractography
// coordinates into FreeSurfer surface (tkr) space, where the cortical
// surface meshes live.
package align

import (
	"fmt"
	"os"

	"github.com/henghuang/nifti"

	"trk2surf/pkg/affine"
)

// TkrFromGrid returns the FreeSurfer vox2ras-tkr matrix of a volume grid:
// RAS axes with the origin at the grid center. Surface vertex coordinates
// are expressed in this frame, so mapping endpoints through it aligns
// them with the subject's meshes.
func TkrFromGrid(dim [3]int, pixdim [3]float64) (*affine.Affine, error) {
	for i := range dim {
		if dim[i] <= 0 || pixdim[i] <= 0 {
			return nil, fmt.Errorf("grid axis %d has dimension %d and spacing %v", i, dim[i], pixdim[i])
		}
	}
	nx, ny, nz := float64(dim[0]), float64(dim[1]), float64(dim[2])
	dx, dy, dz := pixdim[0], pixdim[1], pixdim[2]
	return affine.FromRows([][]float64{
		{-dx, 0, 0, dx * nx / 2},
		{0, 0, dz, -dz * nz / 2},
		{0, -dy, 0, dy * ny / 2},
		{0, 0, 0, 1},
	})
}

// SurfaceAffine reads a reference NIfTI volume header (typically the
// subject's conformed anatomical) and returns its vox2ras-tkr matrix.
// Callers compose it with the tract's voxel scaling to carry streamline
// endpoints from voxel-mm into surface space.
func SurfaceAffine(path string) (*affine.Affine, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open reference volume: %v", err)
	}

	var hdr nifti.Nifti1Header
	hdr.LoadHeader(path)

	dim := [3]int{int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])}
	pixdim := [3]float64{float64(hdr.Pixdim[1]), float64(hdr.Pixdim[2]), float64(hdr.Pixdim[3])}
	aff, err := TkrFromGrid(dim, pixdim)
	if err != nil {
		return nil, fmt.Errorf("reference volume %s has an unusable grid: %v", path, err)
	}
	return aff, nil
}
