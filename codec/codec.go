/*
Package codec implements the protobuf wire format for the persisted models.

Models keep a hand maintained Marshal and Unmarshal method that writes
their fields in declaration order. Unknown fields are skipped when decoding
so that old readers can load records written by a newer version.
*/
package codec

import (
	"github.com/fluida-labs/fluida/errors"
	"github.com/gogo/protobuf/proto"
)

// Wire types used by the models.
const (
	WireVarint = 0
	WireBytes  = 2
)

// Marshaller is implemented by all nested messages.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Encoder writes protobuf fields into a buffer.
type Encoder struct {
	buf *proto.Buffer
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: proto.NewBuffer(nil)}
}

func (e *Encoder) key(field, wire int) {
	// writing into a memory buffer never fails
	_ = e.buf.EncodeVarint(uint64(field)<<3 | uint64(wire))
}

// Bytes writes a length delimited field. Empty values are omitted.
func (e *Encoder) Bytes(field int, b []byte) {
	if len(b) == 0 {
		return
	}
	e.key(field, WireBytes)
	_ = e.buf.EncodeRawBytes(b)
}

// RepeatedBytes writes every element as a separate field, including empty
// ones so that the number of elements is preserved.
func (e *Encoder) RepeatedBytes(field int, list [][]byte) {
	for _, b := range list {
		e.key(field, WireBytes)
		_ = e.buf.EncodeRawBytes(b)
	}
}

// String writes a string field. Empty values are omitted.
func (e *Encoder) String(field int, s string) {
	e.Bytes(field, []byte(s))
}

// Uint64 writes a varint field. Zero values are omitted.
func (e *Encoder) Uint64(field int, v uint64) {
	if v == 0 {
		return
	}
	e.key(field, WireVarint)
	_ = e.buf.EncodeVarint(v)
}

// Int64 writes a varint field using the two's complement representation,
// same as the int64 protobuf type. Zero values are omitted.
func (e *Encoder) Int64(field int, v int64) {
	e.Uint64(field, uint64(v))
}

// Message writes a nested message field.
func (e *Encoder) Message(field int, m Marshaller) error {
	raw, err := m.Marshal()
	if err != nil {
		return err
	}
	e.key(field, WireBytes)
	_ = e.buf.EncodeRawBytes(raw)
	return nil
}

// Result returns the encoded message.
func (e *Encoder) Result() []byte {
	return e.buf.Bytes()
}

// Decoder reads protobuf fields one by one.
//
//	d := codec.NewDecoder(raw)
//	for d.More() {
//	  field, wire, err := d.Key()
//	  ...
//	}
type Decoder struct {
	data []byte
}

// NewDecoder returns a decoder for given message.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// More returns true if there is still data to be read.
func (d *Decoder) More() bool {
	return len(d.data) > 0
}

// Key reads the next field header.
func (d *Decoder) Key() (field, wire int, err error) {
	v, err := d.varint()
	if err != nil {
		return 0, 0, err
	}
	field, wire = int(v>>3), int(v&7)
	if field == 0 {
		return 0, 0, errors.Wrap(errors.ErrInput, "illegal field number 0")
	}
	return field, wire, nil
}

// Uint64 reads a varint value.
func (d *Decoder) Uint64(wire int) (uint64, error) {
	if wire != WireVarint {
		return 0, errors.Wrapf(errors.ErrInput, "want varint, got wire type %d", wire)
	}
	return d.varint()
}

// Int64 reads a varint value as a signed integer.
func (d *Decoder) Int64(wire int) (int64, error) {
	v, err := d.Uint64(wire)
	return int64(v), err
}

// Bytes reads a length delimited value. The returned slice is a copy.
func (d *Decoder) Bytes(wire int) ([]byte, error) {
	if wire != WireBytes {
		return nil, errors.Wrapf(errors.ErrInput, "want bytes, got wire type %d", wire)
	}
	size, err := d.varint()
	if err != nil {
		return nil, err
	}
	if size > uint64(len(d.data)) {
		return nil, errors.Wrap(errors.ErrInput, "unexpected end of data")
	}
	b := make([]byte, size)
	copy(b, d.data[:size])
	d.data = d.data[size:]
	return b, nil
}

// String reads a length delimited value as a string.
func (d *Decoder) String(wire int) (string, error) {
	b, err := d.Bytes(wire)
	return string(b), err
}

// Skip drops the value of a field that is not known.
func (d *Decoder) Skip(wire int) error {
	switch wire {
	case WireVarint:
		_, err := d.varint()
		return err
	case WireBytes:
		_, err := d.Bytes(wire)
		return err
	default:
		return errors.Wrapf(errors.ErrInput, "unsupported wire type %d", wire)
	}
}

func (d *Decoder) varint() (uint64, error) {
	v, n := proto.DecodeVarint(d.data)
	if n == 0 {
		return 0, errors.Wrap(errors.ErrInput, "malformed varint")
	}
	d.data = d.data[n:]
	return v, nil
}
