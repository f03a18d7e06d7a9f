package app

import (
	"encoding/binary"

	"golang.org/x/crypto/ed25519"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/sigs"
)

const (
	pubkeyLength    = ed25519.PublicKeySize
	sequenceLength  = 8
	signatureLength = ed25519.SignatureSize

	// headerLength is the size of the envelope preceding the message body.
	headerLength = pubkeyLength + sequenceLength + signatureLength
)

// Tx is the transaction envelope accepted by the application. It carries a
// single signature over the message body.
//
// Binary layout:
//
//	pubkey   | sequence          | signature | body
//	32 bytes | uint64 big endian | 64 bytes  | remaining bytes
type Tx struct {
	Signature *sigs.StdSignature
	Body      []byte
}

var _ fluida.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction carrying given message body.
func NewTx(body []byte) *Tx {
	return &Tx{Body: body}
}

func (tx *Tx) GetBody() []byte {
	return tx.Body
}

// GetSignBytes returns the message body. The chain id and the sequence are
// added by sigs.BuildSignBytes.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	return tx.Body, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	if tx.Signature == nil {
		return nil
	}
	return []*sigs.StdSignature{tx.Signature}
}

// Sign attaches the signature of given key, created for the chain and the
// current sequence of the signer.
func (tx *Tx) Sign(key ed25519.PrivateKey, chainID string, seq int64) error {
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signature = sig
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Signature == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if err := tx.Signature.Validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, headerLength, headerLength+len(tx.Body))
	copy(raw, tx.Signature.Pubkey)
	binary.BigEndian.PutUint64(raw[pubkeyLength:], uint64(tx.Signature.Sequence))
	copy(raw[pubkeyLength+sequenceLength:], tx.Signature.Signature)
	return append(raw, tx.Body...), nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if len(raw) < headerLength {
		return errors.Wrapf(errors.ErrInput, "transaction must be at least %d bytes, got %d", headerLength, len(raw))
	}
	seq := binary.BigEndian.Uint64(raw[pubkeyLength:])
	if seq > 1<<63-1 {
		return errors.Wrap(sigs.ErrInvalidSequence, "sequence overflow")
	}
	*tx = Tx{
		Signature: &sigs.StdSignature{
			Pubkey:    clone(raw[:pubkeyLength]),
			Sequence:  int64(seq),
			Signature: clone(raw[pubkeyLength+sequenceLength : headerLength]),
		},
		Body: clone(raw[headerLength:]),
	}
	return nil
}

// TxDecoder parses the transaction envelope.
func TxDecoder(raw []byte) (fluida.Tx, error) {
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &tx, nil
}

var _ fluida.TxDecoder = TxDecoder

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
