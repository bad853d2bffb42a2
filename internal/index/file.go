package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// File layout, little-endian:
//
//	magic "RPIX" | version u32 | kind u8 | dim u32 | rows u32 | nlist u32 | nprobe u32
//	rows*dim f32 vectors
//	ivf only: nlist*dim f32 centroids, then per list: len u32 + len*u32 positions
var fileMagic = []byte("RPIX")

// DefaultFileName is the index file written into the output directory.
const DefaultFileName = "plants.index"

const fileVersion uint32 = 1

const (
	kindFlat uint8 = 0
	kindIVF  uint8 = 1
)

// ErrFormat indicates the file is not a native index.
var ErrFormat = errors.New("not a native index file")

type fileHeader struct {
	Version uint32
	Kind    uint8
	Dim     uint32
	Rows    uint32
	NList   uint32
	NProbe  uint32
}

// writeFile serialises m and, when ivf is non-nil, its cluster structure.
// The file is written to a temporary sibling and renamed into place.
func writeFile(path string, m domain.Matrix, ivf *IVFIndex) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, m, ivf); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func encode(w io.Writer, m domain.Matrix, ivf *IVFIndex) error {
	bw := bufio.NewWriter(w)
	h := fileHeader{Version: fileVersion, Kind: kindFlat, Dim: uint32(m.Dim), Rows: uint32(m.Rows)}
	if ivf != nil {
		h.Kind = kindIVF
		h.NList = uint32(ivf.centroids.Rows)
		h.NProbe = uint32(ivf.nprobe)
	}

	if _, err := bw.Write(fileMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Data); err != nil {
		return err
	}
	if ivf != nil {
		if err := binary.Write(bw, binary.LittleEndian, ivf.centroids.Data); err != nil {
			return err
		}
		for _, list := range ivf.lists {
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(list))); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, list); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load reads a native index written by Save.
func Load(path string) (driven.VectorIndex, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

func decode(r io.Reader) (driven.VectorIndex, error) {
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil || !bytes.Equal(magic, fileMagic) {
		return nil, ErrFormat
	}

	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("%w: version %d", ErrFormat, h.Version)
	}

	m := domain.Matrix{Rows: int(h.Rows), Dim: int(h.Dim), Data: make([]float32, int(h.Rows)*int(h.Dim))}
	if err := binary.Read(r, binary.LittleEndian, m.Data); err != nil {
		return nil, fmt.Errorf("%w: vectors: %v", ErrFormat, err)
	}

	switch h.Kind {
	case kindFlat:
		return &FlatIndex{m: m}, nil
	case kindIVF:
		return decodeIVF(r, m, h)
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrFormat, h.Kind)
	}
}

func decodeIVF(r io.Reader, m domain.Matrix, h fileHeader) (*IVFIndex, error) {
	nlist, dim := int(h.NList), int(h.Dim)
	centroids := domain.Matrix{Rows: nlist, Dim: dim, Data: make([]float32, nlist*dim)}
	if err := binary.Read(r, binary.LittleEndian, centroids.Data); err != nil {
		return nil, fmt.Errorf("%w: centroids: %v", ErrFormat, err)
	}

	lists := make([][]int32, nlist)
	total := 0
	for c := range lists {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: list %d: %v", ErrFormat, c, err)
		}
		if int(n) > m.Rows {
			return nil, fmt.Errorf("%w: list %d has %d entries", ErrFormat, c, n)
		}
		list := make([]int32, n)
		if err := binary.Read(r, binary.LittleEndian, list); err != nil {
			return nil, fmt.Errorf("%w: list %d: %v", ErrFormat, c, err)
		}
		for _, pos := range list {
			if pos < 0 || int(pos) >= m.Rows {
				return nil, fmt.Errorf("%w: position %d out of range", ErrFormat, pos)
			}
		}
		lists[c] = list
		total += len(list)
	}
	if total != m.Rows {
		return nil, fmt.Errorf("%w: lists hold %d of %d vectors", ErrFormat, total, m.Rows)
	}

	return &IVFIndex{m: m, centroids: centroids, lists: lists, nprobe: int(h.NProbe)}, nil
}
