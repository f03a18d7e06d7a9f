package store

import (
	"testing"

	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

// TestSliceIterator makes sure the basic slice iterator works.
func TestSliceIterator(t *testing.T) {
	const size = 10

	models := randModels(size, 8, 40)

	it := NewSliceIterator(models)
	for i := 0; i < size; i++ {
		key, value, err := it.Next()
		assert.Nil(t, err)
		assert.Equal(t, models[i].Key, key)
		assert.Equal(t, models[i].Value, value)
	}
	_, _, err := it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)

	released := NewSliceIterator(models)
	released.Release()
	if _, _, err := released.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("released iterator must be done, got %v", err)
	}
}

func TestNonAtomicBatch(t *testing.T) {
	db := MemStore()
	b := db.NewBatch()

	assert.Nil(t, b.Set([]byte("a"), []byte("1")))
	assert.Nil(t, b.Set([]byte("b"), []byte("2")))
	assert.Nil(t, b.Delete([]byte("a")))

	// nothing is visible before the batch is written
	got, err := db.Get([]byte("b"))
	assert.Nil(t, err)
	assert.Nil(t, got)

	assert.Nil(t, b.Write())

	got, err = db.Get([]byte("b"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("2"), got)
	has, err := db.Has([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)
}
