package store

import (
	"bytes"

	"github.com/fluida-labs/fluida/errors"
	"github.com/google/btree"
)

// collectBtree copies all items of the [start, end) range. A snapshot is
// taken so that releasing an iterator never races with writes to the tree.
func collectBtree(bt *btree.BTree, start, end []byte, reverse bool) []keyer {
	var items []keyer
	insert := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(insert)
	case start == nil:
		bt.AscendLessThan(bkey{end}, insert)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, insert)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, insert)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// peekIterator buffers a single element of the parent iterator so that it
// can be compared with the cached items before it is consumed.
type peekIterator struct {
	it    Iterator
	key   []byte
	value []byte
	valid bool
}

func (p *peekIterator) advance() error {
	key, value, err := p.it.Next()
	switch {
	case err == nil:
		p.key, p.value, p.valid = key, value, true
		return nil
	case errors.ErrIteratorDone.Is(err):
		p.key, p.value, p.valid = nil, nil, false
		return nil
	default:
		return err
	}
}

// itemIter combines cached items with the parent store iterator, taking
// into consideration overwrites and deletes.
type itemIter struct {
	items   []keyer
	idx     int
	parent  *peekIterator
	reverse bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(items []keyer, parentIter Iterator, reverse bool) (*itemIter, error) {
	p := &peekIterator{it: parentIter}
	if err := p.advance(); err != nil {
		parentIter.Release()
		return nil, err
	}
	return &itemIter{items: items, parent: p, reverse: reverse}, nil
}

// Next returns the next key/value pair, skipping all deleted entries.
func (i *itemIter) Next() (key, value []byte, err error) {
	for {
		switch i.firstKey() {
		case none:
			return nil, nil, errors.ErrIteratorDone
		case parent:
			key, value = i.parent.key, i.parent.value
			if err := i.parent.advance(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// cached value shadows the parent one
			if err := i.parent.advance(); err != nil {
				return nil, nil, err
			}
			fallthrough
		case us:
			item := i.items[i.idx]
			i.idx++
			if set, ok := item.(setItem); ok {
				return set.Key(), set.value, nil
			}
			// deleted item, keep looking
		}
	}
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	i.parent.it.Release()
	i.items = nil
}

// firstKey selects the iterator with the lowest key (highest for reverse
// iteration) if any
func (i *itemIter) firstKey() source {
	usValid := i.idx < len(i.items)
	if !i.parent.valid {
		if !usValid {
			return none
		}
		return us
	} else if !usValid {
		return parent
	}

	cmp := bytes.Compare(i.parent.key, i.items[i.idx].Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
