package htlc

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/codec"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/gconf"
	"github.com/fluida-labs/fluida/orm"
)

// State is the complete persisted state of the swap engine, serialized in
// field order: custodian, counter, swaps.
type State struct {
	AuthorizedCustodian fluida.Address `json:"authorized_custodian"`
	SwapCounter         uint64         `json:"swap_counter"`
	Swaps               []SwapEntry    `json:"swaps"`
}

func (s *State) Validate() error {
	if len(s.AuthorizedCustodian) != 0 {
		if err := s.AuthorizedCustodian.Validate(); err != nil {
			return errors.Wrap(err, "custodian")
		}
	}
	for i, e := range s.Swaps {
		if e.Swap == nil {
			return errors.Wrapf(errors.ErrEmpty, "swap %d", i)
		}
		if err := e.Swap.Validate(); err != nil {
			return errors.Wrapf(err, "swap %d", e.ID)
		}
		if e.ID >= s.SwapCounter {
			return errors.Wrapf(errors.ErrState, "swap id %d not below counter %d", e.ID, s.SwapCounter)
		}
		if i > 0 && s.Swaps[i-1].ID >= e.ID {
			return errors.Wrap(errors.ErrState, "swaps must be ordered by id")
		}
	}
	return nil
}

func (s *State) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	e.Bytes(1, s.AuthorizedCustodian)
	e.Uint64(2, s.SwapCounter)
	for i := range s.Swaps {
		if err := e.Message(3, &s.Swaps[i]); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (s *State) Unmarshal(raw []byte) error {
	*s = State{}
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
			s.AuthorizedCustodian = b
		case 2:
			s.SwapCounter, err = d.Uint64(wire)
		case 3:
			b, err = d.Bytes(wire)
			if err == nil {
				var entry SwapEntry
				err = entry.Unmarshal(b)
				s.Swaps = append(s.Swaps, entry)
			}
		default:
			err = d.Skip(wire)
		}
		if err != nil {
			return errors.Wrapf(err, "state field %d", field)
		}
	}
	return nil
}

func (e *SwapEntry) Marshal() ([]byte, error) {
	enc := codec.NewEncoder()
	enc.Bytes(1, SwapKey(e.ID))
	if e.Swap != nil {
		if err := enc.Message(2, e.Swap); err != nil {
			return nil, err
		}
	}
	return enc.Result(), nil
}

func (e *SwapEntry) Unmarshal(raw []byte) error {
	*e = SwapEntry{}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Key()
		if err != nil {
			return err
		}
		var b []byte
		switch field {
		case 1:
			if b, err = d.Bytes(wire); err == nil {
				e.ID, err = swapIDFromKey(b)
			}
		case 2:
			if b, err = d.Bytes(wire); err == nil {
				e.Swap = new(Swap)
				err = e.Swap.Unmarshal(b)
			}
		default:
			err = d.Skip(wire)
		}
		if err != nil {
			return errors.Wrapf(err, "swap entry field %d", field)
		}
	}
	return nil
}

// ExportState reads the whole swap engine state.
func ExportState(db fluida.ReadOnlyKVStore) (*State, error) {
	b := NewBucket()
	custodian, err := Custodian(db)
	if err != nil {
		return nil, errors.Wrap(err, "custodian")
	}
	counter, err := b.Counter(db)
	if err != nil {
		return nil, errors.Wrap(err, "counter")
	}
	swaps, err := b.All(db)
	if err != nil {
		return nil, errors.Wrap(err, "swaps")
	}
	return &State{
		AuthorizedCustodian: custodian,
		SwapCounter:         counter,
		Swaps:               swaps,
	}, nil
}

// ImportState writes an exported state into a store that holds no swaps.
// The custodian of the state, if set, replaces the configured one.
func ImportState(db fluida.KVStore, state *State) error {
	if err := state.Validate(); err != nil {
		return errors.Wrap(err, "invalid state")
	}
	b := NewBucket()
	if n, err := b.Counter(db); err != nil {
		return err
	} else if n != 0 {
		return errors.Wrapf(errors.ErrState, "store already holds %d swaps", n)
	}

	if len(state.AuthorizedCustodian) != 0 {
		conf, err := loadConf(db)
		if err != nil {
			return err
		}
		conf.Custodian = state.AuthorizedCustodian
		if err := gconf.Save(db, ConfigPkg, conf); err != nil {
			return errors.Wrap(err, "save custodian")
		}
	}
	if state.SwapCounter > 1<<63-1 {
		return errors.Wrap(errors.ErrOverflow, "swap counter")
	}
	if err := b.seq.Set(db, int64(state.SwapCounter)); err != nil {
		return errors.Wrap(err, "swap counter")
	}
	for _, e := range state.Swaps {
		if err := b.Save(db, orm.NewSimpleObj(SwapKey(e.ID), e.Swap)); err != nil {
			return errors.Wrapf(err, "swap %d", e.ID)
		}
	}
	return nil
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
//
// The configuration is read from the "conf" section and is required. An
// exported state can be given under the "htlc" key.
type Initializer struct{}

var _ fluida.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial configuration and state from genesis.
func (*Initializer) FromGenesis(opts fluida.Options, db fluida.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(db, opts, ConfigPkg, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}
	var state *State
	if err := opts.ReadOptions("htlc", &state); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if state == nil {
		return nil
	}
	return ImportState(db, state)
}
