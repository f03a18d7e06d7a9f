/*
Package x contains the extensions of the swap engine.

Extensions implement common functionality (Handler, Decorator,
Initializer) and are combined together by the app package into the
application served over ABCI. x/sigs authenticates the transaction signer
and x/htlc implements the swap state machine.

This package holds the Authenticator abstraction that lets handlers
verify who signed a transaction without depending on x/sigs directly.
*/
package x
