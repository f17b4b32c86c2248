package trajectory

import (
	"encoding/binary"
	"fmt"
	"io"
)

// recordReader reads Fortran unformatted sequential records: a length
// marker, the payload, and the same length marker again.
type recordReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   []byte
}

// next reads the next record. A clean io.EOF is returned when the stream ends
// exactly at a record boundary.
func (rr *recordReader) next() ([]byte, error) {
	var marker [4]byte
	if _, err := io.ReadFull(rr.r, marker[:]); err != nil {
		return nil, err
	}
	n := rr.order.Uint32(marker[:])

	if cap(rr.buf) < int(n) {
		rr.buf = make([]byte, n)
	}
	rr.buf = rr.buf[:n]
	if _, err := io.ReadFull(rr.r, rr.buf); err != nil {
		return nil, unexpected(err)
	}
	if _, err := io.ReadFull(rr.r, marker[:]); err != nil {
		return nil, unexpected(err)
	}
	if m := rr.order.Uint32(marker[:]); m != n {
		return nil, fmt.Errorf("A record of %d bytes ends with a marker "+
			"of %d bytes.", n, m)
	}
	return rr.buf, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
