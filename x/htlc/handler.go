package htlc

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// Machine applies the swap operations to the store. All checks are done
// before the first write, so a failed operation never leaves a trace.
type Machine struct {
	bucket Bucket
}

// NewMachine returns a state machine operating on the swap bucket.
func NewMachine() Machine {
	return Machine{bucket: NewBucket()}
}

// Create stores a new pending swap funded by the deposit. Two swaps may share
// the same hash lock.
func (m Machine) Create(db fluida.KVStore, d *Deposit) (uint64, *Swap, error) {
	swap := &Swap{
		Initiator: d.Initiator,
		Recipient: d.Recipient,
		Amount:    d.Amount,
		HashLock:  d.HashLock,
		TimeLock:  d.TimeLock,
		State:     SwapPending,
	}
	if err := swap.Validate(); err != nil {
		return 0, nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	id, err := m.bucket.Create(db, swap)
	if err != nil {
		return 0, nil, errors.Wrap(err, "create swap")
	}
	return id, swap, nil
}

// CheckComplete returns the swap that would be claimed by given preimage.
func (m Machine) CheckComplete(db fluida.ReadOnlyKVStore, swapID, preimage *uint256.Int) (uint64, *Swap, error) {
	id, swap, err := m.pending(db, swapID)
	if err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(HashLock(preimage), swap.HashLock) {
		return 0, nil, errors.Wrapf(ErrHashMismatch, "swap %d", id)
	}
	return id, swap, nil
}

// Complete releases the swap amount to the recipient. Anyone knowing the
// preimage may complete a swap, also after its time lock, as long as it was
// not refunded yet.
func (m Machine) Complete(db fluida.KVStore, swapID, preimage *uint256.Int) (*Swap, *TransferInstruction, error) {
	id, swap, err := m.CheckComplete(db, swapID, preimage)
	if err != nil {
		return nil, nil, err
	}
	raw := preimage.Bytes32()
	swap.State = SwapClaimed
	swap.Preimage = raw[:]
	if err := m.bucket.Update(db, id, swap); err != nil {
		return nil, nil, errors.Wrap(err, "update swap")
	}
	return swap, newTransfer(id, swap.Amount, swap.Recipient), nil
}

// CheckRefund returns the swap that would be refunded at given time.
func (m Machine) CheckRefund(db fluida.ReadOnlyKVStore, now fluida.UnixTime, swapID *uint256.Int) (uint64, *Swap, error) {
	id, swap, err := m.pending(db, swapID)
	if err != nil {
		return 0, nil, err
	}
	if now < swap.TimeLock {
		return 0, nil, errors.Wrapf(ErrNotYetExpired, "swap %d expires at %s", id, swap.TimeLock)
	}
	return id, swap, nil
}

// Refund returns the swap amount to the initiator. Expiration is inclusive:
// a swap can be refunded starting exactly at its time lock.
func (m Machine) Refund(db fluida.KVStore, now fluida.UnixTime, swapID *uint256.Int) (*Swap, *TransferInstruction, error) {
	id, swap, err := m.CheckRefund(db, now, swapID)
	if err != nil {
		return nil, nil, err
	}
	swap.State = SwapRefunded
	if err := m.bucket.Update(db, id, swap); err != nil {
		return nil, nil, errors.Wrap(err, "update swap")
	}
	return swap, newTransfer(id, swap.Amount, swap.Initiator), nil
}

func (m Machine) pending(db fluida.ReadOnlyKVStore, swapID *uint256.Int) (uint64, *Swap, error) {
	id, swap, err := m.bucket.GetSwap(db, swapID)
	if err != nil {
		return 0, nil, err
	}
	if swap.IsCompleted() {
		return 0, nil, errors.Wrapf(ErrAlreadyCompleted, "swap %d is %s", id, swap.State)
	}
	return id, swap, nil
}
