// Package npy persists the embedding matrix as a NumPy .npy file
// (format version 1.0, little-endian float32, C order, two dimensions).
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

var magic = []byte("\x93NUMPY")

// headerAlign is the total preamble alignment numpy uses since 1.24.
const headerAlign = 64

// ErrFormat indicates the file is not a supported .npy array.
var ErrFormat = errors.New("unsupported npy file")

var (
	descrPattern   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranPattern = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapePattern   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Encode writes m as a version 1.0 .npy array.
func Encode(w io.Writer, m domain.Matrix) error {
	if len(m.Data) != m.Rows*m.Dim {
		return fmt.Errorf("%w: %d values for %dx%d matrix", domain.ErrInvalidInput, len(m.Data), m.Rows, m.Dim)
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Rows, m.Dim)
	// magic(6) + version(2) + length(2) + header + newline
	preamble := len(magic) + 4 + len(header) + 1
	if pad := preamble % headerAlign; pad != 0 {
		header += strings.Repeat(" ", headerAlign-pad)
	}
	header += "\n"

	bw := bufio.NewWriter(w)
	bw.Write(magic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(header)))
	bw.WriteString(header)
	if err := binary.Write(bw, binary.LittleEndian, m.Data); err != nil {
		return err
	}
	return bw.Flush()
}

// readChunk bounds each allocation while reading data of unknown length.
const readChunk = 1 << 16

// Decode reads a two-dimensional little-endian float32 .npy array.
// Versions 1.0 and 2.0 headers are accepted.
func Decode(r io.Reader) (domain.Matrix, error) {
	return DecodeSize(r, -1)
}

// DecodeSize is Decode for a stream of size bytes. The header shape must
// match the payload exactly. A negative size skips the length check.
func DecodeSize(r io.Reader, size int64) (domain.Matrix, error) {
	br := bufio.NewReader(r)

	pre := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(br, pre); err != nil {
		return domain.Matrix{}, fmt.Errorf("%w: short preamble", ErrFormat)
	}
	if !bytes.Equal(pre[:len(magic)], magic) {
		return domain.Matrix{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}

	var headerLen, lenField int
	switch major := pre[len(magic)]; major {
	case 1:
		lenField = 2
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return domain.Matrix{}, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		headerLen = int(n)
	case 2:
		lenField = 4
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return domain.Matrix{}, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		headerLen = int(n)
	default:
		return domain.Matrix{}, fmt.Errorf("%w: version %d", ErrFormat, major)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return domain.Matrix{}, fmt.Errorf("%w: short header", ErrFormat)
	}
	rows, dim, err := parseHeader(string(header))
	if err != nil {
		return domain.Matrix{}, err
	}

	if rows > 0 && dim == 0 {
		return domain.Matrix{}, fmt.Errorf("%w: shape (%d, 0)", ErrFormat, rows)
	}
	if dim > 0 && rows > math.MaxInt/4/dim {
		return domain.Matrix{}, fmt.Errorf("%w: shape (%d, %d) overflows", ErrFormat, rows, dim)
	}
	n := rows * dim
	if size >= 0 {
		payload := size - int64(len(pre)+lenField+headerLen)
		if payload != int64(n)*4 {
			return domain.Matrix{}, fmt.Errorf("%w: shape (%d, %d) needs %d data bytes, file has %d",
				ErrFormat, rows, dim, int64(n)*4, payload)
		}
	}

	data, err := readFloats(br, n, size >= 0)
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("%w: truncated data: %v", ErrFormat, err)
	}
	return domain.Matrix{Rows: rows, Dim: dim, Data: data}, nil
}

// readFloats reads n values. Unless sized, the slice grows chunk by chunk
// so a lying header fails on EOF before a large allocation.
func readFloats(r io.Reader, n int, sized bool) ([]float32, error) {
	if sized || n <= readChunk {
		data := make([]float32, n)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, err
		}
		return data, nil
	}

	data := make([]float32, 0, readChunk)
	buf := make([]float32, readChunk)
	for len(data) < n {
		chunk := buf[:min(readChunk, n-len(data))]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}
	return data, nil
}

func parseHeader(h string) (rows, dim int, err error) {
	descr := descrPattern.FindStringSubmatch(h)
	if descr == nil || descr[1] != "<f4" {
		return 0, 0, fmt.Errorf("%w: dtype must be <f4", ErrFormat)
	}
	fortran := fortranPattern.FindStringSubmatch(h)
	if fortran == nil || fortran[1] != "False" {
		return 0, 0, fmt.Errorf("%w: fortran order", ErrFormat)
	}
	shape := shapePattern.FindStringSubmatch(h)
	if shape == nil {
		return 0, 0, fmt.Errorf("%w: missing shape", ErrFormat)
	}

	var dims []int
	for _, part := range strings.Split(shape[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("%w: shape %q", ErrFormat, shape[1])
		}
		dims = append(dims, n)
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("%w: %d-dimensional array", ErrFormat, len(dims))
	}
	return dims[0], dims[1], nil
}
