/*
Package bolt provides a single file committed store using bbolt.

Writes of cache wraps stay in memory until Commit. Commit applies them,
bumps the version and records a state hash computed over the whole data
bucket, all in one bolt transaction, so the file never holds the state of a
block without its version.
*/
package bolt

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	bolt "go.etcd.io/bbolt"
)

var (
	dataBucket = []byte("state")
	metaBucket = []byte("meta")

	versionKey = []byte("version")
	hashKey    = []byte("hash")
)

// CommitStore keeps the application state in a bolt database file.
type CommitStore struct {
	db *bolt.DB
	// working holds the writes since the last commit.
	working store.BTreeCacheWrap
	pending *pendingBatch
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens (or creates) the database file at the given path.
func NewCommitStore(path string) (*CommitStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(dataBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s := &CommitStore{db: db}
	s.reset()
	return s, nil
}

func (s *CommitStore) reset() {
	s.pending = &pendingBatch{}
	s.working = store.NewBTreeCacheWrap(reader{s.db}, s.pending, nil)
}

// Close releases the database file.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

// Get returns the value at last written state, including writes that are
// not committed yet.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return s.working.Get(key)
}

// CacheWrap returns a cache whose Write is kept in memory until Commit.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.working.CacheWrap()
}

// Adapter exposes the database as a store writing every change directly
// to the file.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return store.BTreeCacheable{KVStore: direct{reader{s.db}}}
}

// LoadLatestVersion is a noop, bolt always opens the latest state.
func (s *CommitStore) LoadLatestVersion() error {
	return nil
}

// LatestVersion returns the version and hash of the last commit.
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	var id store.CommitID
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if v := meta.Get(versionKey); len(v) == 8 {
			id.Version = int64(binary.BigEndian.Uint64(v))
		}
		id.Hash = clone(meta.Get(hashKey))
		return nil
	})
	if err != nil {
		return id, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return id, nil
}

// Commit writes the pending changes, increments the version and stores the
// hash of the resulting state in a single transaction.
func (s *CommitStore) Commit() (store.CommitID, error) {
	var id store.CommitID
	err := s.db.Update(func(tx *bolt.Tx) error {
		data := bucketWriter{tx.Bucket(dataBucket)}
		for _, op := range s.pending.ops {
			if err := op.Apply(data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(metaBucket)
		if v := meta.Get(versionKey); len(v) == 8 {
			id.Version = int64(binary.BigEndian.Uint64(v))
		}
		id.Version++

		h := sha256.New()
		var size [4]byte
		err := tx.Bucket(dataBucket).ForEach(func(k, v []byte) error {
			binary.BigEndian.PutUint32(size[:], uint32(len(k)))
			h.Write(size[:])
			h.Write(k)
			binary.BigEndian.PutUint32(size[:], uint32(len(v)))
			h.Write(size[:])
			h.Write(v)
			return nil
		})
		if err != nil {
			return err
		}
		id.Hash = h.Sum(nil)

		var version [8]byte
		binary.BigEndian.PutUint64(version[:], uint64(id.Version))
		if err := meta.Put(versionKey, version[:]); err != nil {
			return err
		}
		return meta.Put(hashKey, id.Hash)
	})
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s.working.Discard()
	s.reset()
	return id, nil
}

// reader gives read only access to the data bucket
type reader struct {
	db *bolt.DB
}

var _ store.ReadOnlyKVStore = reader{}

func (r reader) Get(key []byte) ([]byte, error) {
	var val []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		// values are only valid during the transaction
		val = clone(tx.Bucket(dataBucket).Get(key))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (r reader) Has(key []byte) (bool, error) {
	val, err := r.Get(key)
	return val != nil, err
}

func (r reader) Iterator(start, end []byte) (store.Iterator, error) {
	models, err := r.collect(start, end)
	if err != nil {
		return nil, err
	}
	return store.NewSliceIterator(models), nil
}

func (r reader) ReverseIterator(start, end []byte) (store.Iterator, error) {
	models, err := r.collect(start, end)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return store.NewSliceIterator(models), nil
}

// collect returns all pairs of the [start, end) range in ascending order.
func (r reader) collect(start, end []byte) ([]store.Model, error) {
	var res []store.Model
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(dataBucket).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			res = append(res, store.Pair(clone(k), clone(v)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

// direct writes each operation in its own transaction
type direct struct {
	reader
}

var _ store.KVStore = direct{}

func (d direct) Set(key, value []byte) error {
	b := d.NewBatch()
	if err := b.Set(key, value); err != nil {
		return err
	}
	return b.Write()
}

func (d direct) Delete(key []byte) error {
	b := d.NewBatch()
	if err := b.Delete(key); err != nil {
		return err
	}
	return b.Write()
}

func (d direct) NewBatch() store.Batch {
	return &batch{db: d.db}
}

// batch collects operations and applies them in a single transaction
type batch struct {
	db  *bolt.DB
	ops []store.Op
}

var _ store.Batch = (*batch)(nil)

func (b *batch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

func (b *batch) Write() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(dataBucket)
		for _, op := range b.ops {
			if err := op.Apply(bucketWriter{bucket}); err != nil {
				return err
			}
		}
		return nil
	})
	b.ops = nil
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// pendingBatch collects the operations flushed by cache wraps. Write keeps
// them, Commit applies them.
type pendingBatch struct {
	ops []store.Op
}

var _ store.Batch = (*pendingBatch)(nil)

func (b *pendingBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(clone(key), clone(value)))
	return nil
}

func (b *pendingBatch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(clone(key)))
	return nil
}

func (b *pendingBatch) Write() error {
	return nil
}

type bucketWriter struct {
	b *bolt.Bucket
}

func (w bucketWriter) Set(key, value []byte) error {
	return w.b.Put(key, value)
}

func (w bucketWriter) Delete(key []byte) error {
	return w.b.Delete(key)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
