// Package trk reads TrackVis (.trk) tractography files. Streamline points
// are returned in the file's native voxel-mm space; Header.AffineToRAS
// provides the transform into scanner RAS-mm coordinates.
package trk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"trk2surf/internal/models"
	"trk2surf/pkg/affine"
)

// headerSize is the fixed TrackVis header length in bytes.
const headerSize = 1000

// maxPointsPerStreamline bounds a single streamline's point count so a
// corrupt length field fails cleanly instead of exhausting memory.
const maxPointsPerStreamline = 1 << 24

// rawHeader mirrors the 1000-byte TrackVis header layout exactly.
type rawHeader struct {
	IDString                [6]byte
	Dim                     [3]int16
	VoxelSize               [3]float32
	Origin                  [3]float32
	NScalars                int16
	ScalarNames             [10][20]byte
	NProperties             int16
	PropertyNames           [10][20]byte
	VoxToRAS                [4][4]float32
	Reserved                [444]byte
	VoxelOrder              [4]byte
	Pad2                    [4]byte
	ImageOrientationPatient [6]float32
	Pad1                    [2]byte
	InvertX, InvertY, InvertZ byte
	SwapXY, SwapYZ, SwapZX    byte
	NCount  int32
	Version int32
	HdrSize int32
}

// Header holds the TrackVis header fields trk2surf consumes.
type Header struct {
	// Dim is the voxel grid size of the volume the tract was computed in.
	Dim [3]int16

	// VoxelSize is the voxel edge length per axis in mm.
	VoxelSize [3]float32

	// VoxelOrder is the axis-orientation code, e.g. "LAS".
	VoxelOrder string

	// VoxToRAS maps voxel indices to scanner RAS-mm. Only stored by
	// version-2 files; a zero bottom-right entry means "never recorded".
	VoxToRAS [4][4]float32

	// NCount is the streamline count recorded in the header, or 0 when
	// the writer streamed output without counting.
	NCount int32

	// Version is the TrackVis format version (1 or 2).
	Version int32
}

// Tractogram is a loaded .trk file: the parsed header plus all
// streamlines in voxel-mm coordinates.
type Tractogram struct {
	Header      Header
	Streamlines []models.Streamline
}

// StreamlineData returns the streamlines in canonical form, satisfying
// the endpoint aggregation Source interface.
func (t *Tractogram) StreamlineData() []models.Streamline {
	return t.Streamlines
}

// Read loads a TrackVis file. Both byte orders are supported; the stored
// header size field identifies which one the file uses.
func Read(path string) (*Tractogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trk file: %v", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	raw, order, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trk header from %s: %v", path, err)
	}

	streamlines, err := readStreamlines(r, raw, order)
	if err != nil {
		return nil, fmt.Errorf("failed to read streamlines from %s: %v", path, err)
	}

	return &Tractogram{
		Header: Header{
			Dim:        raw.Dim,
			VoxelSize:  raw.VoxelSize,
			VoxelOrder: string(bytes.TrimRight(raw.VoxelOrder[:], "\x00")),
			VoxToRAS:   raw.VoxToRAS,
			NCount:     raw.NCount,
			Version:    raw.Version,
		},
		Streamlines: streamlines,
	}, nil
}

// readHeader parses the fixed header, probing the byte order via the
// stored header size.
func readHeader(r io.Reader) (*rawHeader, binary.ByteOrder, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		var raw rawHeader
		if err := binary.Read(bytes.NewReader(buf), order, &raw); err != nil {
			return nil, nil, err
		}
		if raw.HdrSize != headerSize {
			continue
		}
		if !bytes.HasPrefix(raw.IDString[:], []byte("TRACK")) {
			return nil, nil, fmt.Errorf("bad id string %q", raw.IDString)
		}
		if raw.NScalars < 0 || raw.NScalars > 10 || raw.NProperties < 0 || raw.NProperties > 10 {
			return nil, nil, fmt.Errorf("implausible scalar/property counts (%d, %d)", raw.NScalars, raw.NProperties)
		}
		return &raw, order, nil
	}
	return nil, nil, fmt.Errorf("header size field is not %d in either byte order", headerSize)
}

// readStreamlines parses the streamline records that follow the header.
// Each record is a point count, the points (3 coordinates plus any
// per-point scalars, all float32), then any per-streamline properties.
func readStreamlines(r *bufio.Reader, raw *rawHeader, order binary.ByteOrder) ([]models.Streamline, error) {
	var streamlines []models.Streamline
	if raw.NCount > 0 {
		streamlines = make([]models.Streamline, 0, raw.NCount)
	}

	floatsPerPoint := 3 + int(raw.NScalars)
	for {
		if raw.NCount > 0 && len(streamlines) == int(raw.NCount) {
			break
		}

		var nPoints int32
		err := binary.Read(r, order, &nPoints)
		if err == io.EOF {
			if raw.NCount > 0 {
				return nil, fmt.Errorf("file ended after %d of %d streamlines", len(streamlines), raw.NCount)
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read point count of streamline %d: %v", len(streamlines), err)
		}
		if nPoints <= 0 || nPoints > maxPointsPerStreamline {
			return nil, fmt.Errorf("streamline %d has implausible point count %d", len(streamlines), nPoints)
		}

		data := make([]float32, int(nPoints)*floatsPerPoint+int(raw.NProperties))
		if err := binary.Read(r, order, data); err != nil {
			return nil, fmt.Errorf("failed to read streamline %d: %v", len(streamlines), err)
		}

		sl := make(models.Streamline, nPoints)
		for i := 0; i < int(nPoints); i++ {
			base := i * floatsPerPoint
			sl[i] = r3.Vec{
				X: float64(data[base]),
				Y: float64(data[base+1]),
				Z: float64(data[base+2]),
			}
		}
		streamlines = append(streamlines, sl)
	}
	return streamlines, nil
}

// VoxelScale returns the transform from voxel-mm coordinates to voxel
// indices, i.e. division by the voxel size.
func (h *Header) VoxelScale() (*affine.Affine, error) {
	for i, vs := range h.VoxelSize {
		if vs <= 0 {
			return nil, fmt.Errorf("voxel size along axis %d is %v", i, vs)
		}
	}
	return affine.Scale(
		1/float64(h.VoxelSize[0]),
		1/float64(h.VoxelSize[1]),
		1/float64(h.VoxelSize[2]),
	), nil
}

// VoxmmToVoxel returns the transform from the file's voxel-mm
// coordinates to voxel indices: scale by the reciprocal voxel size, then
// shift from the TrackVis corner-of-voxel origin to the center-of-voxel
// index convention.
func (h *Header) VoxmmToVoxel() (*affine.Affine, error) {
	scale, err := h.VoxelScale()
	if err != nil {
		return nil, err
	}
	shift := affine.Translation(r3.Vec{X: -0.5, Y: -0.5, Z: -0.5})
	return shift.Mul(scale), nil
}

// AffineToRAS builds the transform from the file's voxel-mm space to
// scanner RAS-mm: convert to voxel indices, then apply the stored
// vox_to_ras matrix. Version-1 files never store the matrix, so the
// transform cannot be derived for them.
func (h *Header) AffineToRAS() (*affine.Affine, error) {
	if h.Version < 2 {
		return nil, fmt.Errorf("trk version %d does not store a vox_to_ras matrix", h.Version)
	}
	if h.VoxToRAS[3][3] == 0 {
		return nil, fmt.Errorf("trk header vox_to_ras matrix was never recorded")
	}

	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = make([]float64, 4)
		for j := range rows[i] {
			rows[i][j] = float64(h.VoxToRAS[i][j])
		}
	}
	voxToRAS, err := affine.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("trk header vox_to_ras matrix is invalid: %v", err)
	}

	toVoxel, err := h.VoxmmToVoxel()
	if err != nil {
		return nil, err
	}
	return voxToRAS.Mul(toVoxel), nil
}
