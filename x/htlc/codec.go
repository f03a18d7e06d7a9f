package htlc

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// payloadReader consumes fixed width big endian fields. The first failure is
// kept and every following read is a noop.
type payloadReader struct {
	data []byte
	err  error
}

func (r *payloadReader) take(name string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data) < n {
		r.err = errors.Wrapf(ErrMalformedPayload, "%s: want %d bytes, got %d", name, n, len(r.data))
		return nil
	}
	chunk := r.data[:n]
	r.data = r.data[n:]
	return chunk
}

func (r *payloadReader) uint32(name string) uint32 {
	b := r.take(name, 4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *payloadReader) uint64(name string) uint64 {
	b := r.take(name, 8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// uint reads an unsigned integer of given byte width, at most 32.
func (r *payloadReader) uint(name string, width int) *uint256.Int {
	b := r.take(name, width)
	if b == nil {
		return nil
	}
	return new(uint256.Int).SetBytes(b)
}

func (r *payloadReader) address(name string) fluida.Address {
	b := r.take(name, fluida.AddressLength)
	if b == nil {
		return nil
	}
	return append(fluida.Address(nil), b...)
}

func (r *payloadReader) bytes(name string, n int) []byte {
	b := r.take(name, n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// finish returns the first read failure or an error if not all the data was
// consumed.
func (r *payloadReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if len(r.data) != 0 {
		return errors.Wrapf(ErrMalformedPayload, "%d trailing bytes", len(r.data))
	}
	return nil
}

type payloadWriter struct {
	data []byte
}

func (w *payloadWriter) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.data = append(w.data, b[:]...)
}

func (w *payloadWriter) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.data = append(w.data, b[:]...)
}

// uint writes the lowest width bytes of v. The caller ensures the value fits.
func (w *payloadWriter) uint(v *uint256.Int, width int) {
	var full [32]byte
	if v != nil {
		full = v.Bytes32()
	}
	w.data = append(w.data, full[32-width:]...)
}

func (w *payloadWriter) bytes(b []byte) {
	w.data = append(w.data, b...)
}
