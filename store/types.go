//nolint
package store

import (
	"github.com/fluida-labs/fluida"
)

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = fluida.ReadOnlyKVStore
type SetDeleter = fluida.SetDeleter
type KVStore = fluida.KVStore
type Batch = fluida.Batch
type Iterator = fluida.Iterator
type CacheableKVStore = fluida.CacheableKVStore
type KVCacheWrap = fluida.KVCacheWrap
type CommitKVStore = fluida.CommitKVStore
type CommitID = fluida.CommitID
type Model = fluida.Model

var Pair = fluida.Pair
