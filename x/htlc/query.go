package htlc

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/gconf"
)

// Counter returns the current value of the swap counter: the number of
// swaps created so far.
func Counter(db fluida.ReadOnlyKVStore) (uint64, error) {
	return NewBucket().Counter(db)
}

// Custodian returns the authorized custodian or nil if none is configured.
func Custodian(db fluida.ReadOnlyKVStore) (fluida.Address, error) {
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	return conf.Custodian, nil
}

// GetSwap returns the swap with given id or ErrSwapNotFound.
func GetSwap(db fluida.ReadOnlyKVStore, id *uint256.Int) (*Swap, error) {
	_, swap, err := NewBucket().GetSwap(db, id)
	return swap, err
}

// HasSwap returns true if a swap with given id was created.
func HasSwap(db fluida.ReadOnlyKVStore, id *uint256.Int) (bool, error) {
	return NewBucket().HasSwap(db, id)
}

// SwapsByHashLock returns all swaps sharing given hash lock.
func SwapsByHashLock(db fluida.ReadOnlyKVStore, hashLock []byte) ([]SwapEntry, error) {
	if len(hashLock) != HashLength {
		return nil, errors.Wrapf(errors.ErrInput, "hash lock must be %d bytes", HashLength)
	}
	return NewBucket().ByHashLock(db, hashLock)
}

// RegisterQuery registers the read only queries under "/htlc".
//
// Swap ids are passed as big endian numbers of at most 32 bytes. Numbers are
// returned as 8 byte big endian values and swaps in their binary encoding.
func RegisterQuery(qr fluida.QueryRouter) {
	qr.Register("/htlc/counter", fluida.QueryHandlerFunc(queryCounter))
	qr.Register("/htlc/custodian", fluida.QueryHandlerFunc(queryCustodian))
	qr.Register("/htlc/swap", fluida.QueryHandlerFunc(querySwap))
	qr.Register("/htlc/has", fluida.QueryHandlerFunc(queryHas))
	qr.Register("/htlc/hashlock", fluida.QueryHandlerFunc(queryHashLock))
}

func queryCounter(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	n, err := Counter(db)
	if err != nil {
		return nil, err
	}
	seq := NewBucket().seq
	return []fluida.Model{fluida.Pair(seq.Key(), encodeUint64(n))}, nil
}

func queryCustodian(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	c, err := Custodian(db)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return []fluida.Model{fluida.Pair(gconf.Key(ConfigPkg), c)}, nil
}

func querySwap(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	id, err := parseQueryID(data)
	if err != nil {
		return nil, err
	}
	swap, err := GetSwap(db, id)
	if err != nil {
		return nil, err
	}
	raw, err := swap.Marshal()
	if err != nil {
		return nil, err
	}
	return []fluida.Model{fluida.Pair(SwapKey(id.Uint64()), raw)}, nil
}

func queryHas(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	id, err := parseQueryID(data)
	if err != nil {
		return nil, err
	}
	ok, err := HasSwap(db, id)
	if err != nil {
		return nil, err
	}
	var value byte
	if ok {
		value = 1
	}
	key := id.Bytes32()
	return []fluida.Model{fluida.Pair(key[:], []byte{value})}, nil
}

func queryHashLock(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	entries, err := SwapsByHashLock(db, data)
	if err != nil {
		return nil, err
	}
	models := make([]fluida.Model, 0, len(entries))
	for _, e := range entries {
		raw, err := e.Swap.Marshal()
		if err != nil {
			return nil, err
		}
		models = append(models, fluida.Pair(SwapKey(e.ID), raw))
	}
	return models, nil
}

func parseQueryID(data []byte) (*uint256.Int, error) {
	if len(data) == 0 || len(data) > idWidth {
		return nil, errors.Wrapf(errors.ErrInput, "swap id must be 1 to %d bytes", idWidth)
	}
	return new(uint256.Int).SetBytes(data), nil
}

func encodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
