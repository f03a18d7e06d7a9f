package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

/*
TestSuite holds the store behaviour shared by every backend. Each backend
package provides a constructor and runs the methods from its own tests, so
the in-memory btree, the iavl tree and the bolt file store are verified
against the same expectations.
*/
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store together with a cleanup
// function releasing its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet checks that cache layers see the data below them and that writes
// are visible only once a layer is written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("swap:0001"), []byte("pending")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("swap:0002"), []byte("claimed")
	s.AssertGetHas(t, cache, k2, nil, false)
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// a discarded layer leaves no trace
	k3, v3 := []byte("swap:0003"), []byte("refunded")
	c2 := base.CacheWrap()
	s.AssertGetHas(t, c2, k, v, true)
	assert.Nil(t, c2.Set(k3, v3))
	c2.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	c3 := base.CacheWrap()
	assert.Nil(t, c3.Delete(k))
	assert.Nil(t, c3.Write())

	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
	s.AssertGetHas(t, base, k3, nil, false)
}

// CacheConflicts checks that a child layer shadows the values of its parent
// until it is written.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randBlobs(10, 16)
	vs := randBlobs(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // nil Value means the key must be absent
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete and set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[14])},
			parentQueries: []Model{Pair(ks[4], vs[4])},
			childQueries:  []Model{Pair(ks[4], vs[14])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// FuzzIterator merges random parent and child writes, including deletes of
// absent keys, and checks every kind of range in both directions.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50

	childSet := randModels(size, 8, 40)
	childOps := append(setOps(childSet...), deleteOps(randModels(20, 8, 40)...)...)
	parentSet := randModels(size, 8, 40)
	parentOps := append(setOps(parentSet...), deleteOps(randModels(20, 8, 40)...)...)

	cases := map[string]iterCase{
		"child over an empty parent": {
			child:   childOps,
			queries: rangeQueries(sortedByKey(childSet)),
		},
		"child over a populated parent": {
			pre:     parentOps,
			child:   childOps,
			queries: rangeQueries(sortedByKey(append(childSet, parentSet...))),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// rangeQueries builds open, half open and closed ranges over sorted, which
// must hold at least 40 models.
func rangeQueries(sorted []Model) []rangeQuery {
	n := len(sorted)
	return []rangeQuery{
		{want: sorted},
		{start: sorted[10].Key, want: sorted[10:]},
		{end: sorted[n-8].Key, want: sorted[:n-8]},
		{start: sorted[17].Key, end: sorted[28].Key, want: sorted[17:28]},
		{reverse: true, want: reversed(sorted)},
		{reverse: true, start: sorted[34].Key, want: reversed(sorted[34:])},
		{reverse: true, end: sorted[19].Key, want: reversed(sorted[:19])},
		{reverse: true, start: sorted[6].Key, end: sorted[26].Key, want: reversed(sorted[6:26])},
	}
}

// IteratorWithConflicts iterates over swaps that a child layer updated or
// removed.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(4, 20, 100)
	pending, claimed, refunded, created := ms[0], ms[1], ms[2], ms[3]
	// same swaps after a state change
	claimedLater := Pair(claimed.Key, []byte("claimed"))
	pendingLater := Pair(pending.Key, []byte("refunded"))

	before := sortedByKey([]Model{pending, claimed, refunded})
	after := sortedByKey([]Model{pendingLater, claimedLater, refunded, created})

	cases := map[string]iterCase{
		"child only": {
			child: setOps(pending, claimed, refunded),
			queries: []rangeQuery{
				{want: before},
				{start: before[1].Key, end: before[2].Key, want: before[1:2]},
				{reverse: true, want: reversed(before)},
			},
		},
		"parent only": {
			pre: setOps(pending, claimed, refunded),
			queries: []rangeQuery{
				{want: before},
				{start: before[1].Key, end: before[2].Key, want: before[1:2]},
				{reverse: true, want: reversed(before)},
			},
		},
		"child values win": {
			pre:   setOps(pending, claimed, refunded),
			child: setOps(pendingLater, claimedLater, created),
			queries: []rangeQuery{
				{want: after},
				{start: after[1].Key, end: after[3].Key, want: after[1:3]},
				{reverse: true, want: reversed(after)},
			},
		},
		"child deletes hide parent values": {
			pre:   setOps(pending, refunded, created),
			child: deleteOps(pending, claimed, created),
			queries: []rangeQuery{
				{want: []Model{refunded}},
				{reverse: true, want: []Model{refunded}},
				{end: refunded.Key},
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// AssertGetHas fails unless Get returns val and Has returns has for key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBlobs(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = make([]byte, size)
		_, _ = rand.Read(res[i])
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	keys := randBlobs(count, keySize)
	values := randBlobs(count, valueSize)
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(keys[i], values[i])
	}
	return models
}

// iterCase applies pre to the store and child to a cache wrap above it,
// then runs every query against the cache wrap.
type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start, end []byte
	reverse    bool
	want       []Model
}

func (q rangeQuery) open(kv ReadOnlyKVStore) (Iterator, error) {
	if q.reverse {
		return kv.ReverseIterator(q.start, q.end)
	}
	return kv.Iterator(q.start, q.end)
}

func (c iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range c.pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range c.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range c.queries {
		iter, err := q.open(child)
		assert.Nil(t, err)
		var got []Model
		for {
			key, value, err := iter.Next()
			if errors.ErrIteratorDone.Is(err) {
				break
			}
			assert.Nil(t, err)
			got = append(got, Pair(key, value))
		}
		iter.Release()

		if len(got) != len(q.want) {
			t.Fatalf("want %d models in [%X, %X), got %d", len(q.want), q.start, q.end, len(got))
		}
		for i := range got {
			if !bytes.Equal(q.want[i].Key, got[i].Key) {
				t.Fatalf("want key %X at %d, got %X", q.want[i].Key, i, got[i].Key)
			}
			assert.Equal(t, q.want[i].Value, got[i].Value)
		}
	}
}

func reversed(models []Model) []Model {
	res := make([]Model, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		res = append(res, models[i])
	}
	return res
}

func sortedByKey(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func setOps(ms ...Model) []Op {
	ops := make([]Op, 0, len(ms))
	for _, m := range ms {
		ops = append(ops, SetOp(m.Key, m.Value))
	}
	return ops
}

func deleteOps(ms ...Model) []Op {
	ops := make([]Op, 0, len(ms))
	for _, m := range ms {
		ops = append(ops, DelOp(m.Key))
	}
	return ops
}
