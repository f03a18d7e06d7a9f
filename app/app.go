/*
Package app links the swap engine to a tendermint node. It implements the
ABCI application: transactions are decoded from the signed envelope, run
through the authentication and recovery decorators and handed to the swap
dispatcher.
*/
package app

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/x/htlc"
	"github.com/fluida-labs/fluida/x/sigs"
)

// Name is reported by the ABCI Info call.
const Name = "fluida"

// Chain returns the handler stack processing every transaction.
func Chain() fluida.Handler {
	return ChainDecorators(
		NewLogging(),
		NewRecovery(),
		sigs.NewDecorator(),
	).WithHandler(htlc.NewDispatcher(sigs.Authenticate{}))
}

// QueryRouter returns a router with all read only queries registered.
func QueryRouter() fluida.QueryRouter {
	qr := fluida.NewQueryRouter()
	qr.RegisterAll(
		htlc.RegisterQuery,
		sigs.RegisterQuery,
		registerSwapBucket,
	)
	return qr
}

// registerSwapBucket exposes raw swap records under "/swaps" and the hash
// lock index under "/swaps/hashlock".
func registerSwapBucket(qr fluida.QueryRouter) {
	htlc.NewBucket().Register("swaps", qr)
}

// NewSwapApp returns the ABCI application running on top of given store.
func NewSwapApp(kv fluida.CommitKVStore, logger log.Logger, debug bool) BaseApp {
	ctx := context.Background()
	store := NewStoreApp(Name, kv, QueryRouter(), ctx).
		WithInit(Initializers()).
		WithLogger(logger)
	return NewBaseApp(store, TxDecoder, Chain(), debug)
}
