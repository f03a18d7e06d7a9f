package sigs

import (
	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// NextNonce returns the next numeric nonce value that should be used during a
// transaction signing.
// If the signer never signed a transaction, nonce counting starts with zero.
func NextNonce(db fluida.ReadOnlyKVStore, signer fluida.Address) (int64, error) {
	obj, err := NewBucket().Get(db, signer)
	if err != nil {
		return 0, errors.Wrap(err, "bucket get")
	}
	if u := AsUser(obj); u != nil {
		return u.Sequence, nil
	}
	return 0, nil
}
