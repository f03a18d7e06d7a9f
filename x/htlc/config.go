package htlc

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/codec"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/gconf"
)

// ConfigPkg is the name of the configuration entity in the store.
const ConfigPkg = "htlc"

// Configuration is the extension configuration. It is created by the
// genesis and only the custodian can later be changed, by the owner.
type Configuration struct {
	// Owner is allowed to reconfigure the extension.
	Owner fluida.Address `json:"owner"`
	// Custodian is the only account whose deposit notifications are
	// turned into swaps.
	Custodian fluida.Address `json:"custodian"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) GetOwner() fluida.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	if len(c.Owner) != 0 {
		if err := c.Owner.Validate(); err != nil {
			return errors.Wrap(err, "owner")
		}
	}
	if len(c.Custodian) != 0 {
		if err := c.Custodian.Validate(); err != nil {
			return errors.Wrap(err, "custodian")
		}
	}
	return nil
}

func (c *Configuration) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	e.Bytes(1, c.Owner)
	e.Bytes(2, c.Custodian)
	return e.Result(), nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Key()
		if err != nil {
			return err
		}
		var b []byte
		switch field {
		case 1:
			b, err = d.Bytes(wire)
			c.Owner = b
		case 2:
			b, err = d.Bytes(wire)
			c.Custodian = b
		default:
			err = d.Skip(wire)
		}
		if err != nil {
			return errors.Wrapf(err, "configuration field %d", field)
		}
	}
	return nil
}

// loadConf returns the stored configuration. A missing configuration is
// reported as an empty one, which does not authorize any custodian.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, ConfigPkg, &conf); {
	case err == nil:
		return &conf, nil
	case errors.ErrNotFound.Is(err):
		return &Configuration{}, nil
	default:
		return nil, err
	}
}
