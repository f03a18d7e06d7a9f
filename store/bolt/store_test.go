package bolt

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func openStore(t testing.TB) (*CommitStore, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "bolt-store-")
	assert.Nil(t, err)
	db, err := NewCommitStore(filepath.Join(dir, "state.db"))
	assert.Nil(t, err)
	return db, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}

func suite(t *testing.T) *store.TestSuite {
	return store.NewTestSuite(func() (store.CacheableKVStore, func()) {
		db, cleanup := openStore(t)
		return db.Adapter(), cleanup
	})
}

func TestCacheGetSet(t *testing.T) {
	suite(t).GetSet(t)
}

func TestCacheConflicts(t *testing.T) {
	suite(t).CacheConflicts(t)
}

func TestFuzzIterator(t *testing.T) {
	suite(t).FuzzIterator(t)
}

func TestIteratorWithConflicts(t *testing.T) {
	suite(t).IteratorWithConflicts(t)
}

func TestCommit(t *testing.T) {
	db, cleanup := openStore(t)
	defer cleanup()

	assert.Nil(t, db.LoadLatestVersion())
	id, err := db.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)

	k, v := []byte("_s.htlc:id"), []byte{0, 0, 0, 0, 0, 0, 0, 1}
	cache := db.CacheWrap()
	assert.Nil(t, cache.Set(k, v))
	got, err := db.Get(k)
	assert.Nil(t, err)
	assert.Nil(t, got)

	assert.Nil(t, cache.Write())
	first, err := db.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), first.Version)

	got, err = db.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, v, got)

	// committing an unchanged state keeps the hash
	same, err := db.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), same.Version)
	assert.Equal(t, first.Hash, same.Hash)

	cache = db.CacheWrap()
	assert.Nil(t, cache.Delete(k))
	assert.Nil(t, cache.Write())
	third, err := db.Commit()
	assert.Nil(t, err)
	if string(third.Hash) == string(first.Hash) {
		t.Fatal("hash must change with the state")
	}

	latest, err := db.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, third, latest)
}

func TestUncommittedWritesAreNotPersisted(t *testing.T) {
	dir, err := ioutil.TempDir("", "bolt-store-")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.db")

	db, err := NewCommitStore(path)
	assert.Nil(t, err)

	key := []byte("_s.htlc:id")
	cache := db.CacheWrap()
	assert.Nil(t, cache.Set(key, []byte{0, 0, 0, 0, 0, 0, 0, 1}))
	assert.Nil(t, cache.Write())
	first, err := db.Commit()
	assert.Nil(t, err)

	// The next block is flushed but the process stops before the commit.
	cache = db.CacheWrap()
	assert.Nil(t, cache.Set(key, []byte{0, 0, 0, 0, 0, 0, 0, 2}))
	assert.Nil(t, cache.Set([]byte("swap:1"), []byte("pending")))
	assert.Nil(t, cache.Write())

	// Flushed writes are visible before the commit.
	got, err := db.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2}, got)
	assert.Nil(t, db.Close())

	db, err = NewCommitStore(path)
	assert.Nil(t, err)
	defer db.Close()

	latest, err := db.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, first, latest)

	got, err = db.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, got)
	got, err = db.Get([]byte("swap:1"))
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestCommitIsAtomicWithState(t *testing.T) {
	db, cleanup := openStore(t)
	defer cleanup()

	deliver := db.CacheWrap()
	assert.Nil(t, deliver.Set([]byte("a"), []byte("1")))
	assert.Nil(t, deliver.Write())

	// A nested cache created after the flush reads the pending value.
	nested := db.CacheWrap()
	got, err := nested.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), got)
	assert.Nil(t, nested.Delete([]byte("a")))
	assert.Nil(t, nested.Set([]byte("b"), []byte("2")))
	assert.Nil(t, nested.Write())

	id, err := db.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)

	got, err = reader{db.db}.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, got)
	got, err = reader{db.db}.Get([]byte("b"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("2"), got)
}
