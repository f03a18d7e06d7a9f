package orm

import (
	"github.com/fluida-labs/fluida/codec"
	"github.com/fluida-labs/fluida/errors"
)

// Counter is a minimal model used to exercise the buckets.
type Counter struct {
	Count int64
}

var _ CloneableData = (*Counter)(nil)

func NewCounter(count int64) *Counter {
	return &Counter{Count: count}
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative counter")
	}
	return nil
}

func (c *Counter) Copy() CloneableData {
	return &Counter{Count: c.Count}
}

func (c *Counter) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	e.Int64(1, c.Count)
	return e.Result(), nil
}

func (c *Counter) Unmarshal(raw []byte) error {
	c.Count = 0
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Key()
		if err != nil {
			return err
		}
		if field != 1 {
			return errors.Wrapf(errors.ErrInput, "unknown counter field %d", field)
		}
		if c.Count, err = d.Int64(wire); err != nil {
			return err
		}
	}
	return nil
}
