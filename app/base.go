package app

import (
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// BaseApp adds DeliverTx, CheckTx, and BeginBlock
// handlers to the storage and query functionality of StoreApp
type BaseApp struct {
	*StoreApp
	decoder fluida.TxDecoder
	handler fluida.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application
func NewBaseApp(
	store *StoreApp,
	decoder fluida.TxDecoder,
	handler fluida.Handler,
	debug bool,
) BaseApp {
	return BaseApp{
		StoreApp: store.WithDebug(debug),
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx - ABCI - dispatches to the handler
//
// Every transaction is processed on its own cache. It is written only if
// the handler succeeds, so a failing transaction leaves no trace in the
// state.
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return fluida.DeliverTxError(err, b.debug)
	}

	ctx := fluida.WithLogInfo(b.BlockContext(), "call", "deliver_tx")

	cache := b.DeliverStore().CacheWrap()
	res, err := b.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return fluida.DeliverTxError(err, b.debug)
	}
	if err := cache.Write(); err != nil {
		return fluida.DeliverTxError(errors.Wrap(errors.ErrDatabase, err.Error()), b.debug)
	}
	return res.ToABCI()
}

// CheckTx - ABCI - dispatches to the handler
//
// Handlers do not modify the state during the check phase, only the signer
// sequence is updated so that following transactions of the same signer are
// accepted into the mempool.
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return fluida.CheckTxError(err, b.debug)
	}

	ctx := fluida.WithLogInfo(b.BlockContext(), "call", "check_tx")

	cache := b.CheckStore().CacheWrap()
	res, err := b.handler.Check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return fluida.CheckTxError(err, b.debug)
	}
	if err := cache.Write(); err != nil {
		return fluida.CheckTxError(errors.Wrap(errors.ErrDatabase, err.Error()), b.debug)
	}
	return res.ToABCI()
}

// loadTx calls the decoder, and capture any panics
func (b BaseApp) loadTx(txBytes []byte) (tx fluida.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}
