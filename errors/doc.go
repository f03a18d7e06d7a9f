/*
Package errors holds the root errors of fluida and the helpers to wrap them.

Every root error carries an ABCI code that is reported in CheckTx and
DeliverTx responses, so a client can tell an expired swap (ErrExpired) from
a wrong preimage (htlc.ErrHashMismatch) without parsing logs. Extensions
declare their own root errors with Register.

Create runtime errors at the point of failure, with ErrXyz.New or Wrap, so
that the stack trace points to the failing call:

	return errors.Wrapf(htlc.ErrSwapNotFound, "swap %d", id)

Printing with %+v shows the stack, %v the file and line of the first wrap.
*/
package errors
