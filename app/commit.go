package app

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// CommitStore keeps the two caches above the committed state: deliver
// collects the swaps changed by the current block, check validates mempool
// transactions. Both start over after every Commit.
type CommitStore struct {
	committed fluida.CommitKVStore
	deliver   fluida.KVCacheWrap
	check     fluida.KVCacheWrap
}

// NewCommitStore panics when store cannot load its latest version.
func NewCommitStore(store fluida.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
		check:     store.CacheWrap(),
	}
}

func (cs *CommitStore) CommitInfo() (fluida.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit persists the writes of the block. Pending mempool state is
// dropped: transactions still in the mempool are checked again against the
// new state.
func (cs *CommitStore) Commit() (fluida.CommitID, error) {
	cs.check.Discard()
	if err := cs.deliver.Write(); err != nil {
		return fluida.CommitID{}, errors.Wrap(err, "flush block writes")
	}
	id, err := cs.committed.Commit()
	if err != nil {
		return id, err
	}
	cs.deliver, cs.check = cs.committed.CacheWrap(), cs.committed.CacheWrap()
	return id, nil
}

func (cs *CommitStore) CheckStore() fluida.CacheableKVStore {
	return cs.check
}

func (cs *CommitStore) DeliverStore() fluida.CacheableKVStore {
	return cs.deliver
}

// CommittedStore returns a read only view of the last committed state.
func (cs *CommitStore) CommittedStore() fluida.ReadOnlyKVStore {
	return cs.committed.CacheWrap()
}

// chainIDKey lives outside of every bucket prefix.
const chainIDKey = "_fl:chainID"

// mustLoadChainID returns "" before InitChain.
func mustLoadChainID(kv fluida.ReadOnlyKVStore) string {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		panic(err)
	}
	return string(v)
}

// saveChainID refuses invalid ids and a second genesis.
func saveChainID(kv fluida.KVStore, chainID string) error {
	if !fluida.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	switch exists, err := kv.Has([]byte(chainIDKey)); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case exists:
		return errors.Wrap(errors.ErrUnauthorized, "chain id is set at genesis only")
	}
	return errors.Wrap(kv.Set([]byte(chainIDKey), []byte(chainID)), "save chain id")
}
