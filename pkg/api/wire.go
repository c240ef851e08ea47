package api

import (
	"encoding/binary"
	"fmt"
)

// maxBlockLen bounds a single length-prefixed block so a corrupt length
// can't trigger a huge allocation.
const maxBlockLen = 1 << 30

func appendBlock(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// reader walks a byte slice produced by appendBlock / AppendUint32.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: truncated length at offset %d", ErrInvalidSnapshot, r.off)
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: truncated tag at offset %d", ErrInvalidSnapshot, r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *reader) block() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if n > maxBlockLen || int(n) > r.remaining() {
		return nil, fmt.Errorf("%w: block of %d bytes exceeds input at offset %d", ErrInvalidSnapshot, n, r.off)
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}
