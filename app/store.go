package app

import (
	"encoding/json"
	"fmt"
	"sync"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// StoreApp serves the state side of ABCI: handshake, genesis, queries and
// commits. BaseApp embeds it and adds transaction processing.
//
// InitChain and Commit cannot report an error to tendermint, they panic.
type StoreApp struct {
	logger log.Logger
	name   string
	debug  bool

	// mtx keeps queries from reading the committed store while a block
	// is being committed.
	mtx   sync.RWMutex
	store *CommitStore

	initializer fluida.Initializer
	queryRouter fluida.QueryRouter

	// chainID is empty until the genesis was loaded.
	chainID string

	// baseContext carries the chain id and the logger, blockContext adds
	// the height and the block time of the block being processed.
	baseContext  fluida.Context
	blockContext fluida.Context
}

// NewStoreApp resumes from the last commit of store. It panics when the
// stored chain id or commit info cannot be read.
func NewStoreApp(name string, store fluida.CommitKVStore,
	queryRouter fluida.QueryRouter, baseContext fluida.Context) *StoreApp {
	s := &StoreApp{
		name:        name,
		store:       NewCommitStore(store),
		queryRouter: queryRouter,
		baseContext: baseContext,
	}
	s = s.WithLogger(log.NewNopLogger())

	s.chainID = mustLoadChainID(s.DeliverStore())
	if s.chainID != "" {
		s.baseContext = fluida.WithChainID(s.baseContext, s.chainID)
	}

	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	s.blockContext = fluida.WithHeight(s.baseContext, info.Version)
	return s
}

func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// WithInit sets the initializer that loads the genesis app_state.
func (s *StoreApp) WithInit(init fluida.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithDebug stops the redaction of unregistered errors in responses.
func (s *StoreApp) WithDebug(debug bool) *StoreApp {
	s.debug = debug
	return s
}

// parseAppState runs once per chain, from InitChain. A restarted node
// already has a chain id and skips InitChain.
func (s *StoreApp) parseAppState(data []byte, chainID string, init fluida.Initializer) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "appState previously loaded for chain: %s", s.chainID)
	}
	if len(data) == 0 {
		return errors.Wrap(errors.ErrState, "app_state not set in genesis.json, please initialize application before launching the blockchain")
	}
	if init == nil {
		return errors.Wrap(errors.ErrState, "no initializer")
	}

	var appState fluida.Options
	if err := json.Unmarshal(data, &appState); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	if err := s.storeChainID(chainID); err != nil {
		return err
	}
	return init.FromGenesis(appState, s.DeliverStore())
}

func (s *StoreApp) storeChainID(chainID string) error {
	if err := saveChainID(s.DeliverStore(), chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.baseContext = fluida.WithChainID(s.baseContext, s.chainID)
	return nil
}

// WithLogger sets the logger of the app and of every handler context.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.baseContext = fluida.WithLogger(s.baseContext, logger)
	s.logger = logger
	return s
}

func (s *StoreApp) Logger() log.Logger {
	return s.logger
}

func (s *StoreApp) BlockContext() fluida.Context {
	return s.blockContext
}

// DeliverStore is the cache that collects the writes of the current block.
func (s *StoreApp) DeliverStore() fluida.CacheableKVStore {
	return s.store.DeliverStore()
}

// CheckStore is the cache used to validate mempool transactions. It is
// rebuilt from the committed state on every Commit.
func (s *StoreApp) CheckStore() fluida.CacheableKVStore {
	return s.store.CheckStore()
}

// View calls fn with the last committed state. It is safe to use
// concurrently with block processing.
func (s *StoreApp) View(fn func(db fluida.ReadOnlyKVStore) error) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return fn(s.store.CommittedStore())
}

// Info reports the last committed height and app hash, which tendermint
// uses to decide how many blocks to replay.
func (s *StoreApp) Info(req abci.RequestInfo) abci.ResponseInfo {
	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}

	s.logger.Info("handshake",
		"height", info.Version,
		"hash", fmt.Sprintf("%X", info.Hash))

	return abci.ResponseInfo{
		Data:             s.name,
		Version:          fluida.Version(),
		LastBlockHeight:  info.Version,
		LastBlockAppHash: info.Hash,
	}
}

// SetOption is not supported.
func (s *StoreApp) SetOption(res abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// Query reads the last committed state. Path is a registered route such as
// "/htlc/swap" or "/auth", optionally followed by "?prefix". Data is the
// key or the prefix. Key and Value of the response hold two ResultSets of
// the same length.
func (s *StoreApp) Query(reqQuery abci.RequestQuery) abci.ResponseQuery {
	path, mod := fluida.SplitQueryPath(reqQuery.Path)
	qh := s.queryRouter.Handler(path)
	if qh == nil {
		return s.queryError(errors.Wrapf(errors.ErrNotFound, "unexpected query path: %v", reqQuery.Path))
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	info, err := s.store.CommitInfo()
	if err != nil {
		return s.queryError(err)
	}
	models, err := qh.Query(s.store.CommittedStore(), mod, reqQuery.Data)
	if err != nil {
		return s.queryError(err)
	}

	res := abci.ResponseQuery{Height: info.Version}
	if res.Key, err = ResultsFromKeys(models).Marshal(); err != nil {
		return s.queryError(err)
	}
	if res.Value, err = ResultsFromValues(models).Marshal(); err != nil {
		return s.queryError(err)
	}
	return res
}

func (s *StoreApp) queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, s.debug)
	return abci.ResponseQuery{
		Code: code,
		Log:  log,
	}
}

// Commit persists the block and returns the new app hash.
func (s *StoreApp) Commit() abci.ResponseCommit {
	s.mtx.Lock()
	commitID, err := s.store.Commit()
	s.mtx.Unlock()
	if err != nil {
		panic(err)
	}

	s.logger.Debug("block committed",
		"height", commitID.Version,
		"hash", fmt.Sprintf("%X", commitID.Hash),
	)
	return abci.ResponseCommit{Data: commitID.Hash}
}

func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.parseAppState(req.AppStateBytes, req.ChainId, s.initializer); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock records the height and the block time. Swap expiry is always
// decided against the block time, never the local clock.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := fluida.WithHeight(s.baseContext, req.Header.GetHeight())
	ctx = fluida.WithBlockTime(ctx, req.Header.GetTime())
	s.blockContext = ctx
	return abci.ResponseBeginBlock{}
}

// EndBlock never changes the validator set.
func (s *StoreApp) EndBlock(_ abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}
