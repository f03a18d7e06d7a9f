package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func makeBase() (store.CacheableKVStore, func()) {
	return MockCommitStore().Adapter(), func() {}
}

func suite() *store.TestSuite {
	return store.NewTestSuite(makeBase)
}

func TestCacheGetSet(t *testing.T) {
	suite().GetSet(t)
}

func TestCacheConflicts(t *testing.T) {
	suite().CacheConflicts(t)
}

func TestFuzzIterator(t *testing.T) {
	suite().FuzzIterator(t)
}

func TestIteratorWithConflicts(t *testing.T) {
	suite().IteratorWithConflicts(t)
}

func TestCommitOverwrite(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "iavl-commit-")
	assert.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	commit := NewCommitStore(tmpDir, "state")
	assert.Nil(t, commit.LoadLatestVersion())

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)

	k, v := []byte("_c:htlc"), []byte("custodian")
	cache := commit.CacheWrap()
	assert.Nil(t, cache.Set(k, v))

	// not yet committed, not visible
	got, err := commit.Get(k)
	assert.Nil(t, err)
	assert.Nil(t, got)

	assert.Nil(t, cache.Write())
	first, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), first.Version)
	if len(first.Hash) == 0 {
		t.Fatal("commit must produce a hash")
	}

	got, err = commit.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, v, got)

	// a second version with a different value changes the hash
	cache = commit.CacheWrap()
	assert.Nil(t, cache.Set(k, []byte("other")))
	assert.Nil(t, cache.Write())
	second, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), second.Version)
	if string(second.Hash) == string(first.Hash) {
		t.Fatal("hash must change with the state")
	}

	latest, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, second, latest)
}
