package sigs

import (
	"golang.org/x/crypto/ed25519"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// PubKeyCondition returns the condition that is satisfied by a signature of
// the owner of given public key.
//
//	sigs/ed25519/<public key>
func PubKeyCondition(pubkey []byte) fluida.Condition {
	return fluida.NewCondition("sigs", "ed25519", pubkey)
}

// PubKeyAddress returns the address of the public key condition.
func PubKeyAddress(pubkey []byte) fluida.Address {
	return PubKeyCondition(pubkey).Address()
}

func validatePubkey(pubkey []byte) error {
	if len(pubkey) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrUnauthorized, "invalid public key length %d", len(pubkey))
	}
	return nil
}

// verify returns true if the signature was created with the private key
// matching the public key.
func verify(pubkey, message, sig []byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), message, sig)
}
