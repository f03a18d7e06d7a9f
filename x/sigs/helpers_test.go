package sigs

import "github.com/fluida-labs/fluida"

type stdTx struct {
	body       []byte
	signatures []*StdSignature
}

var _ SignedTx = (*stdTx)(nil)
var _ fluida.Tx = (*stdTx)(nil)

func newStdTx(body []byte) *stdTx {
	return &stdTx{body: body}
}

func (tx *stdTx) GetBody() []byte {
	return tx.body
}

func (tx *stdTx) GetSignatures() []*StdSignature {
	return tx.signatures
}

func (tx *stdTx) GetSignBytes() ([]byte, error) {
	return tx.body, nil
}
