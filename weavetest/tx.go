package weavetest

import "github.com/fluida-labs/fluida"

// Tx represents an inbound message carrying the raw operation body.
type Tx struct {
	Body []byte
}

var _ fluida.Tx = (*Tx)(nil)

func (tx *Tx) GetBody() []byte {
	return tx.Body
}
