package store

import (
	"testing"

	"github.com/fluida-labs/fluida/weavetest/assert"
)

func memSuite() *TestSuite {
	return NewTestSuite(func() (CacheableKVStore, func()) {
		return MemStore(), func() {}
	})
}

func TestBTreeCacheGetSet(t *testing.T) {
	memSuite().GetSet(t)
}

func TestBTreeCacheConflicts(t *testing.T) {
	memSuite().CacheConflicts(t)
}

func TestBTreeCacheFuzzIterator(t *testing.T) {
	memSuite().FuzzIterator(t)
}

func TestBTreeCacheIteratorWithConflicts(t *testing.T) {
	memSuite().IteratorWithConflicts(t)
}

// TestBTreeCacheDevNull makes sure writing to an empty store discards all
// data.
func TestBTreeCacheDevNull(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()

	k, v := []byte("custodian"), []byte("somebody")
	assert.Nil(t, base.Set(k, v))
	assert.Nil(t, base.Write())

	got, err := devnull.Get(k)
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestLogableStore(t *testing.T) {
	kv, ops := LogableStore()

	assert.Nil(t, kv.Set([]byte("a"), []byte("1")))
	assert.Nil(t, kv.Delete([]byte("b")))

	got := ops.ShowOps()
	assert.Equal(t, 2, len(got))
	assert.Equal(t, true, got[0].IsSetOp())
	assert.Equal(t, []byte("a"), got[0].Key())
	assert.Equal(t, false, got[1].IsSetOp())
	assert.Equal(t, []byte("b"), got[1].Key())
}
