package orm

import (
	"encoding/binary"
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

// evenOdd indexes counters by parity, negative odd values are not indexed
func evenOdd(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "not a counter")
	}
	if c.Count%2 == 0 {
		return []byte("even"), nil
	}
	return []byte("odd"), nil
}

func byCount(obj Object) ([]byte, error) {
	c := obj.Value().(*Counter)
	res := make([]byte, 8)
	binary.BigEndian.PutUint64(res, uint64(c.Count))
	return res, nil
}

func TestNonUniqueIndex(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("parity", evenOdd, false)
	db := store.MemStore()

	for key, count := range map[string]int64{"a": 1, "b": 2, "c": 3, "d": 4} {
		assert.Nil(t, b.Save(db, NewSimpleObj([]byte(key), NewCounter(count))))
	}

	objs, err := b.GetIndexed(db, "parity", []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(objs))
	// references are sorted by the primary key
	assert.Equal(t, []byte("a"), objs[0].Key())
	assert.Equal(t, []byte("c"), objs[1].Key())

	// moving an object updates the index
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), NewCounter(10))))
	objs, err = b.GetIndexed(db, "parity", []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(objs))
	objs, err = b.GetIndexed(db, "parity", []byte("even"))
	assert.Nil(t, err)
	assert.Equal(t, 3, len(objs))

	// deleting removes the reference
	assert.Nil(t, b.Delete(db, []byte("c")))
	objs, err = b.GetIndexed(db, "parity", []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(objs))

	_, err = b.GetIndexed(db, "unknown", []byte("odd"))
	assert.IsErr(t, ErrInvalidIndex, err)
}

func TestUniqueIndex(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("count", byCount, true)
	db := store.MemStore()

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), NewCounter(7))))
	err := b.Save(db, NewSimpleObj([]byte("b"), NewCounter(7)))
	assert.IsErr(t, errors.ErrDuplicate, err)

	// saving the same object again is not a conflict
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), NewCounter(7))))

	objs, err := b.GetIndexed(db, "count", EncodeSequence(7))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(objs))
	assert.Equal(t, []byte("a"), objs[0].Key())
}

func TestIndexQuery(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("parity", evenOdd, false)
	db := store.MemStore()
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("x"), NewCounter(1))))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("y"), NewCounter(3))))

	qr := fluida.NewQueryRouter()
	b.Register("counters", qr)
	h := qr.Handler("/counters/parity")
	if h == nil {
		t.Fatal("index not registered")
	}

	models, err := h.Query(db, fluida.KeyQueryMod, []byte("odd"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(models))
	assert.Equal(t, []byte("cnts:x"), models[0].Key)
	assert.Equal(t, []byte("cnts:y"), models[1].Key)

	models, err = h.Query(db, fluida.PrefixQueryMod, []byte("o"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(models))
}

func TestIndexUpdateRequiresObject(t *testing.T) {
	idx := NewIndex("cnts_parity", evenOdd, false, func(k []byte) []byte { return k })
	err := idx.Update(store.MemStore(), nil, nil)
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestIndexPrimaryKeyImmutable(t *testing.T) {
	idx := NewIndex("cnts_parity", evenOdd, false, func(k []byte) []byte { return k })
	db := store.MemStore()
	prev := NewSimpleObj([]byte("a"), NewCounter(1))
	assert.Nil(t, idx.Update(db, nil, prev))
	err := idx.Update(db, prev, NewSimpleObj([]byte("b"), NewCounter(2)))
	assert.IsErr(t, errors.ErrImmutable, err)
}
