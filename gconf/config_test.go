package gconf

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/codec"
	"github.com/fluida-labs/fluida/errors"
)

type myconfig struct {
	Owner fluida.Address `json:"owner"`
	Num   int64          `json:"num"`
	Str   string         `json:"str"`
}

func (c *myconfig) GetOwner() fluida.Address {
	return c.Owner
}

func (c *myconfig) Validate() error {
	if c.Num < 0 {
		return errors.Wrap(errors.ErrState, "negative num")
	}
	return nil
}

func (c *myconfig) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	e.Bytes(1, c.Owner)
	e.Int64(2, c.Num)
	e.String(3, c.Str)
	return e.Result(), nil
}

func (c *myconfig) Unmarshal(raw []byte) error {
	*c = myconfig{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Key()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			var b []byte
			b, err = d.Bytes(wire)
			c.Owner = b
		case 2:
			c.Num, err = d.Int64(wire)
		case 3:
			c.Str, err = d.String(wire)
		default:
			err = d.Skip(wire)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
