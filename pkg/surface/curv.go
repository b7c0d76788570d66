package surface

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// curvMagic marks the "new"-format FreeSurfer curv file. Older curv files
// begin directly with a 3-byte vertex count instead; those are not written
// by any tool produced in the last two decades and are rejected on read.
const curvMagic = 0xFFFFFF

// WriteCurv saves a per-vertex scalar map as a FreeSurfer curv file, the
// overlay format surface viewers load alongside a hemisphere surface.
// faceCount is recorded in the header as FreeSurfer tools do; it does not
// affect the values.
func WriteCurv(path string, values []float64, faceCount int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create curv file: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeInt24(w, curvMagic); err != nil {
		return fmt.Errorf("failed to write curv magic: %v", err)
	}
	header := []int32{int32(len(values)), int32(faceCount), 1}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return fmt.Errorf("failed to write curv header: %v", err)
	}

	data := make([]float32, len(values))
	for i, v := range values {
		data[i] = float32(v)
	}
	if err := binary.Write(w, binary.BigEndian, data); err != nil {
		return fmt.Errorf("failed to write curv values: %v", err)
	}
	return w.Flush()
}

// ReadCurv loads a per-vertex scalar map from a new-format curv file.
func ReadCurv(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open curv file: %v", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic, err := readInt24(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read curv magic from %s: %v", path, err)
	}
	if magic != curvMagic {
		return nil, fmt.Errorf("%s is not a new-format curv file (magic 0x%06X)", path, magic)
	}

	var header [3]int32 // vertex count, face count, values per vertex
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read curv header in %s: %v", path, err)
	}
	if header[0] < 0 {
		return nil, fmt.Errorf("corrupt curv file %s: %d vertices", path, header[0])
	}
	if header[2] != 1 {
		return nil, fmt.Errorf("curv file %s has %d values per vertex, expected 1", path, header[2])
	}

	data := make([]float32, header[0])
	if err := binary.Read(r, binary.BigEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read curv values in %s: %v", path, err)
	}
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	return values, nil
}
