// Package orm stores typed objects, such as swaps and signer accounts, in
// prefixed key ranges called buckets. A bucket keeps one object type under
// "<name>:<key>" and maintains its secondary indexes on every Save and
// Delete.
package orm

import (
	"fmt"
	"regexp"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// SeqID names the sequence that hands out object ids.
const SeqID = "id"

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Bucket stores clones of proto under its name prefix. Extensions embed it
// in a typed bucket, as htlc.SwapBucket does.
type Bucket struct {
	name    string
	prefix  []byte
	proto   Cloneable
	indexes map[string]Index
}

var _ fluida.QueryHandler = Bucket{}

func NewBucket(name string, proto Cloneable) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("invalid bucket name %q", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  proto,
	}
}

func (b Bucket) Name() string {
	return b.name
}

// Register exposes the bucket at /name and each index at /name/<index>.
// An empty name uses the bucket name.
func (b Bucket) Register(name string, r fluida.QueryRouter) {
	if name == "" {
		name = b.name
	}
	root := "/" + name
	r.Register(root, b)
	for name, idx := range b.indexes {
		r.Register(root+"/"+name, idx)
	}
}

// Query serves key and prefix lookups. A missing key yields no models.
func (b Bucket) Query(db fluida.ReadOnlyKVStore, mod string, data []byte) ([]fluida.Model, error) {
	key := b.DBKey(data)
	if mod == fluida.PrefixQueryMod {
		return queryPrefix(db, key)
	}
	if mod != fluida.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	switch value, err := db.Get(key); {
	case err != nil:
		return nil, err
	case value == nil:
		return nil, nil
	default:
		return []fluida.Model{fluida.Pair(key, value)}, nil
	}
}

// DBKey returns a new slice holding the prefixed key.
func (b Bucket) DBKey(key []byte) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	return append(append(out, b.prefix...), key...)
}

// Get returns nil without an error when nothing is stored under key.
func (b Bucket) Get(db fluida.ReadOnlyKVStore, key []byte) (Object, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

func (b Bucket) Has(db fluida.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Parse decodes a stored value into a clone of the bucket prototype.
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrapf(errors.ErrState, "cannot parse %s: %s", b.name, err)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save validates model, refreshes the indexes and stores it.
func (b Bucket) Save(db fluida.KVStore, model Object) error {
	if err := model.Validate(); err != nil {
		return err
	}

	bz, err := model.Value().Marshal()
	if err != nil {
		return err
	}
	if err := b.updateIndexes(db, model.Key(), model); err != nil {
		return err
	}
	return db.Set(b.DBKey(model.Key()), bz)
}

// Delete removes key and its index entries. Deleting a missing key is not
// an error.
func (b Bucket) Delete(db fluida.KVStore, key []byte) error {
	if err := b.updateIndexes(db, key, nil); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

func (b Bucket) updateIndexes(db fluida.KVStore, key []byte, model Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && model == nil {
		return nil
	}
	for _, idx := range b.indexes {
		if err := idx.Update(db, prev, model); err != nil {
			return err
		}
	}
	return nil
}

func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}

// WithIndex returns a copy of the bucket that also maintains the named
// index. Registering a name twice panics.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("index %q already registered on %s", name, b.name))
	}
	indexes := map[string]Index{
		name: NewIndex(b.name+"_"+name, indexer, unique, b.DBKey),
	}
	for n, idx := range b.indexes {
		indexes[n] = idx
	}
	b.indexes = indexes
	return b
}

// GetIndexed loads the objects the named index lists under key.
func (b Bucket) GetIndexed(db fluida.ReadOnlyKVStore, name string, key []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, name)
	}
	refs, err := idx.GetAt(db, key)
	if err != nil {
		return nil, err
	}
	return b.readRefs(db, refs)
}

func (b Bucket) readRefs(db fluida.ReadOnlyKVStore, refs [][]byte) ([]Object, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	objs := make([]Object, 0, len(refs))
	for _, key := range refs {
		obj, err := b.Get(db, key)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			return nil, errors.Wrapf(errors.ErrState, "index refers to missing %X", key)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Iterate calls fn for every object stored in the bucket in key order.
// Returning an error from fn stops the iteration.
func (b Bucket) Iterate(db fluida.ReadOnlyKVStore, fn func(Object) error) error {
	itr, err := db.Iterator(prefixRange(b.prefix))
	if err != nil {
		return err
	}
	defer itr.Release()

	for {
		key, value, err := itr.Next()
		if errors.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return err
		}
		obj, err := b.Parse(key[len(b.prefix):], value)
		if err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
}
