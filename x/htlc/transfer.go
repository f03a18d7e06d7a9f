package htlc

import (
	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// OpTransfer is the operation code of the token transfer sent to the
// custodian when a swap is completed.
const OpTransfer uint32 = 0x0f8a7ea5

// TransferInstruction orders the custodian to move the swap amount out of
// the swap engine.
type TransferInstruction struct {
	// QueryID is the lowest 64 bits of the swap id.
	QueryID     uint64
	Amount      *uint256.Int
	Destination fluida.Address
	// ResponseDestination receives the excess of the transfer fees.
	ResponseDestination fluida.Address
}

func newTransfer(id uint64, amount *uint256.Int, to fluida.Address) *TransferInstruction {
	return &TransferInstruction{
		QueryID:             id,
		Amount:              amount.Clone(),
		Destination:         to.Clone(),
		ResponseDestination: to.Clone(),
	}
}

// Marshal encodes the instruction as
//
//	op (4) | query id u64 (8) | amount u128 (16) | destination (20) | response destination (20)
func (t *TransferInstruction) Marshal() ([]byte, error) {
	if t.Amount == nil || t.Amount.BitLen() > amountWidth*8 {
		return nil, errors.Wrap(errors.ErrAmount, "amount must fit 128 bits")
	}
	if err := t.Destination.Validate(); err != nil {
		return nil, errors.Wrap(err, "destination")
	}
	if err := t.ResponseDestination.Validate(); err != nil {
		return nil, errors.Wrap(err, "response destination")
	}
	var w payloadWriter
	w.uint32(OpTransfer)
	w.uint64(t.QueryID)
	w.uint(t.Amount, amountWidth)
	w.bytes(t.Destination)
	w.bytes(t.ResponseDestination)
	return w.data, nil
}

// DecodeTransfer parses an encoded transfer instruction.
func DecodeTransfer(raw []byte) (*TransferInstruction, error) {
	r := &payloadReader{data: raw}
	if op := r.uint32("op"); r.err == nil && op != OpTransfer {
		return nil, errors.Wrapf(ErrUnknownOperation, "op 0x%08x is not a transfer", op)
	}
	t := TransferInstruction{
		QueryID:             r.uint64("query id"),
		Amount:              r.uint("amount", amountWidth),
		Destination:         r.address("destination"),
		ResponseDestination: r.address("response destination"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &t, nil
}
