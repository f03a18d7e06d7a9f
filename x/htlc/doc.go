/*
Package htlc implements hash time-locked swaps.

A swap is created when the authorized token custodian forwards a deposit
notification. The locked amount is released to the recipient by anyone who
reveals the preimage of the hash lock, or returned to the initiator once the
time lock has passed. Each swap is completed exactly once, either claimed or
refunded, and every completion produces a single outbound token transfer
instruction.

All state lives in the key value store handed over with each message:

	_c:htlc                configuration (owner and custodian)
	_s.htlc:id             swap counter
	swap:<id>              swap records, id is 32 byte big endian
	_i.swap_hashlock:<h>   swaps sharing a hash lock
*/
package htlc
