package orm

import (
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestBucketName(t *testing.T) {
	obj := NewSimpleObj(nil, &Counter{})

	assert.Panics(t, func() {
		// An invalid bucket name must crash.
		NewBucket("l33t", obj)
	})
}

func TestBucketNameCollision(t *testing.T) {
	const bucketName = "mybucket"
	var objkey = []byte("collision-key")

	o1 := NewSimpleObj(objkey, NewCounter(5))
	b1 := NewBucket(bucketName, o1)

	// field 1 of a multiref is bytes, while a counter expects a varint
	o2 := NewSimpleObj(objkey, &MultiRef{Refs: [][]byte{[]byte("foobar")}})
	b2 := NewBucket(bucketName, o2)

	db := store.MemStore()
	assert.Nil(t, b1.Save(db, o1))

	// Buckets do not know about each other. Saving an object under the
	// same key overwrites and because there is no check of stored data,
	// this operation does not fail.
	assert.Nil(t, b2.Save(db, o2))

	// Loading an object using the wrong bucket must fail because
	// deserialization cannot happen.
	if _, err := b1.Get(db, objkey); !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestBucketCannotSaveInvalid(t *testing.T) {
	o := NewSimpleObj([]byte("mykey"), NewCounter(-999))
	b := NewBucket("mybucket", o)

	db := store.MemStore()
	if err := b.Save(db, o); !errors.ErrState.Is(err) {
		t.Fatalf("invalid object must not save: %s", err)
	}
	if err := b.Save(db, NewSimpleObj(nil, NewCounter(1))); !errors.ErrEmpty.Is(err) {
		t.Fatalf("object without a key must not save: %s", err)
	}
}

func TestBucketGetSaveDelete(t *testing.T) {
	o := NewSimpleObj([]byte("mykey"), NewCounter(848))
	b := NewBucket("mybucket", o)

	db := store.MemStore()
	assert.Nil(t, b.Save(db, o))

	res, err := b.Get(db, []byte("mykey"))
	assert.Nil(t, err)
	assert.Equal(t, int64(848), res.Value().(*Counter).Count)

	// Update the counter state through the loaded reference.
	res.Value().(*Counter).Count = 59
	assert.Nil(t, b.Save(db, res))

	res, err = b.Get(db, []byte("mykey"))
	assert.Nil(t, err)
	assert.Equal(t, int64(59), res.Value().(*Counter).Count)

	has, err := b.Has(db, []byte("mykey"))
	assert.Nil(t, err)
	assert.Equal(t, true, has)

	assert.Nil(t, b.Delete(db, []byte("mykey")))
	res, err = b.Get(db, []byte("mykey"))
	assert.Nil(t, err)
	assert.Nil(t, res)
}

func TestBucketQuery(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))
	db := store.MemStore()

	for key, count := range map[string]int64{"aa": 1, "ab": 2, "b": 3} {
		assert.Nil(t, b.Save(db, NewSimpleObj([]byte(key), NewCounter(count))))
	}

	qr := fluida.NewQueryRouter()
	b.Register("", qr)
	h := qr.Handler("/cnts")
	if h == nil {
		t.Fatal("bucket not registered")
	}

	models, err := h.Query(db, fluida.KeyQueryMod, []byte("ab"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(models))
	assert.Equal(t, []byte("cnts:ab"), models[0].Key)

	models, err = h.Query(db, fluida.KeyQueryMod, []byte("missing"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(models))

	models, err = h.Query(db, fluida.PrefixQueryMod, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(models))
	assert.Equal(t, []byte("cnts:aa"), models[0].Key)
	assert.Equal(t, []byte("cnts:ab"), models[1].Key)

	_, err = h.Query(db, "unknown", nil)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestBucketIterate(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))
	other := NewBucket("other", NewSimpleObj(nil, new(Counter)))
	db := store.MemStore()

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("2"), NewCounter(20))))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("1"), NewCounter(10))))
	assert.Nil(t, other.Save(db, NewSimpleObj([]byte("3"), NewCounter(30))))

	var keys []string
	var total int64
	err := b.Iterate(db, func(obj Object) error {
		keys = append(keys, string(obj.Key()))
		total += obj.Value().(*Counter).Count
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"1", "2"}, keys)
	assert.Equal(t, int64(30), total)

	stop := errors.ErrHuman.New("stop")
	err = b.Iterate(db, func(Object) error { return stop })
	assert.IsErr(t, errors.ErrHuman, err)
}
