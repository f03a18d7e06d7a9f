package gconf

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

type ReadStore interface {
	Get([]byte) ([]byte, error)
}

type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Key is where the configuration of pkg lives, "_c:htlc" for the swap
// handler.
func Key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save stores src as the configuration of pkg. An invalid src is refused.
func Save(db Store, pkg string, src ValidMarshaler) error {
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s configuration", pkg)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return db.Set(Key(pkg), raw)
}


type ValidMarshaler interface {
	Marshal() ([]byte, error)
	Validate() error
}

// Load decodes the configuration of pkg into dst. It fails with
// ErrNotFound before the genesis stored one.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	switch raw, err := db.Get(Key(pkg)); {
	case err != nil:
		return errors.Wrap(errors.ErrDatabase, err.Error())
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "no %s configuration", pkg)
	default:
		return errors.Wrapf(dst.Unmarshal(raw), "unmarshal %s configuration", pkg)
	}
}

type Unmarshaler interface {
	Unmarshal([]byte) error
}

type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

// InitConfig loads opts["conf"][pkg] from the genesis app_state and saves
// it. Every package with a configuration calls it from its initializer.
func InitConfig(db Store, opts fluida.Options, pkg string, conf Configuration) error {
	var confOptions fluida.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(errors.ErrInput, "read configuration for %s: %s", pkg, err)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
