package surface

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// FreeSurfer binary surface magic numbers, stored as 3-byte big-endian
// integers at the start of the file.
const (
	triangleMagic = 0xFFFFFE // binary triangle surface
	quadMagic     = 0xFFFFFF // legacy quadrangle surface
	newQuadMagic  = 0xFFFFFD // "new" quadrangle surface
)

// ReadSurface reads a FreeSurfer binary triangle surface file
// (e.g. surf/lh.white) into a Mesh. Quadrangle-format surfaces are not
// supported. All multi-byte values in the format are big-endian.
func ReadSurface(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open surface file: %v", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic, err := readInt24(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read surface magic from %s: %v", path, err)
	}
	switch magic {
	case triangleMagic:
		// fall through to the triangle reader below
	case quadMagic, newQuadMagic:
		return nil, fmt.Errorf("%s is a quadrangle-format surface, which is not supported", path)
	default:
		return nil, fmt.Errorf("%s is not a FreeSurfer surface file (magic 0x%06X)", path, magic)
	}

	// The creator stamp is a text line terminated by "\n\n".
	if _, err := r.ReadString('\n'); err != nil {
		return nil, fmt.Errorf("failed to read creator stamp in %s: %v", path, err)
	}
	if b, err := r.ReadByte(); err != nil || b != '\n' {
		return nil, fmt.Errorf("malformed creator stamp in %s", path)
	}

	var nVertices, nFaces int32
	if err := binary.Read(r, binary.BigEndian, &nVertices); err != nil {
		return nil, fmt.Errorf("failed to read vertex count in %s: %v", path, err)
	}
	if err := binary.Read(r, binary.BigEndian, &nFaces); err != nil {
		return nil, fmt.Errorf("failed to read face count in %s: %v", path, err)
	}
	if nVertices < 0 || nFaces < 0 {
		return nil, fmt.Errorf("corrupt surface %s: %d vertices, %d faces", path, nVertices, nFaces)
	}

	coords := make([]float32, 3*int(nVertices))
	if err := binary.Read(r, binary.BigEndian, coords); err != nil {
		return nil, fmt.Errorf("failed to read vertex coordinates in %s: %v", path, err)
	}
	vertices := make([]r3.Vec, nVertices)
	for i := range vertices {
		vertices[i] = r3.Vec{
			X: float64(coords[3*i]),
			Y: float64(coords[3*i+1]),
			Z: float64(coords[3*i+2]),
		}
	}

	indices := make([]int32, 3*int(nFaces))
	if err := binary.Read(r, binary.BigEndian, indices); err != nil {
		return nil, fmt.Errorf("failed to read face indices in %s: %v", path, err)
	}
	faces := make([][3]int32, nFaces)
	for i := range faces {
		for j := 0; j < 3; j++ {
			v := indices[3*i+j]
			if v < 0 || v >= nVertices {
				return nil, fmt.Errorf("corrupt surface %s: face %d references vertex %d of %d", path, i, v, nVertices)
			}
			faces[i][j] = v
		}
	}

	return NewMesh(vertices, faces), nil
}

// readInt24 reads a 3-byte big-endian unsigned integer.
func readInt24(r io.Reader) (int, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2]), nil
}

// writeInt24 writes a 3-byte big-endian unsigned integer.
func writeInt24(w io.Writer, v int) error {
	_, err := w.Write([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
	return err
}
