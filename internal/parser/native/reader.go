package native

import (
	"encoding/binary"
	"fmt"
	"math"
)

// byteReader aids reading data from a byte slice: a cursor plus small
// typed getters. Every getter can fail (the format is untrusted input), so
// each returns an error instead of panicking on a short buffer.
type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{b: b}
}

// errTruncated indicates the byte slice ended before a requested value
// could be read.
var errTruncated = fmt.Errorf("truncated")

func (r *byteReader) require(n int) error {
	if r.pos+n > len(r.b) {
		return errTruncated
	}
	return nil
}

func (r *byteReader) byte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) boolean() (bool, error) {
	v, err := r.byte()
	return v != 0, err
}

func (r *byteReader) uint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *byteReader) uint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) int64() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return int64(v), nil
}

func (r *byteReader) float32() (float32, error) {
	v, err := r.uint32()
	return math.Float32frombits(v), err
}

func (r *byteReader) float64() (float64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return math.Float64frombits(v), nil
}

// str reads a uint16-length-prefixed UTF-8 string.
func (r *byteReader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	if err := r.require(int(n)); err != nil {
		return "", err
	}
	s := string(r.b[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *byteReader) vec3() (x, y, z float32, err error) {
	if x, err = r.float32(); err != nil {
		return
	}
	if y, err = r.float32(); err != nil {
		return
	}
	z, err = r.float32()
	return
}
