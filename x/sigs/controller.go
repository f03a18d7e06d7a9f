package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"golang.org/x/crypto/ed25519"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// SignCodeV1 starts every signed payload.
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures returns the signers of tx, in signature order, and
// bumps the sequence of each of them. One bad signature fails the tx.
func VerifyTxSignatures(store fluida.KVStore, tx SignedTx, chainID string) ([]fluida.Condition, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	var signers []fluida.Condition
	for _, sig := range tx.GetSignatures() {
		signer, err := VerifySignature(store, sig, payload, chainID)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature checks sig over signBytes on chainID and stores the next
// expected sequence of the signer, creating its account on first use.
func VerifySignature(db fluida.KVStore, sig *StdSignature, signBytes []byte, chainID string) (fluida.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	bucket := NewBucket()
	obj, err := bucket.GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return nil, err
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}

	user := AsUser(obj)
	if !verify(user.Pubkey, toSign, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}

	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Save(db, obj); err != nil {
		return nil, err
	}
	return PubKeyCondition(user.Pubkey), nil
}

// BuildSignBytes returns the sha512 digest that is signed with ed25519:
//
//	SignCodeV1 | len(chainID) | chainID | sequence (8 bytes, big endian) | signBytes
//
// Binding the chain id and the sequence stops a swap claim from being
// replayed on another chain or twice on the same one.
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !fluida.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	h := sha512.New()
	h.Write(SignCodeV1)
	h.Write([]byte{uint8(len(chainID))})
	h.Write([]byte(chainID))
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], uint64(seq))
	h.Write(seqBytes[:])
	h.Write(signBytes)
	return h.Sum(nil), nil
}

// BuildSignBytesTx is BuildSignBytes over the sign bytes of tx.
func BuildSignBytesTx(tx SignedTx, chainID string, seq int64) ([]byte, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(signBytes, chainID, seq)
}

// SignTx signs tx with key for the given sequence. fluidacli uses it.
func SignTx(key ed25519.PrivateKey, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	signBytes, err := BuildSignBytesTx(tx, chainID, seq)
	if err != nil {
		return nil, err
	}
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "not an ed25519 key")
	}
	return &StdSignature{
		Pubkey:    []byte(pub),
		Sequence:  seq,
		Signature: ed25519.Sign(key, signBytes),
	}, nil
}
