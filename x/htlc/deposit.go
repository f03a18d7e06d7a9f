package htlc

import (
	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// Deposit holds the validated parameters of a swap funded by a deposit
// notification.
type Deposit struct {
	Initiator fluida.Address
	Recipient fluida.Address
	Amount    *uint256.Int
	HashLock  []byte
	TimeLock  fluida.UnixTime
}

// ValidateDeposit checks that the notification was forwarded by the
// configured custodian and extracts the swap parameters from its payload.
//
// The sender is authorized before the payload is inspected, so that any
// notification from another account is reported as ErrUnauthorizedSender
// regardless of its content. The store is never modified.
func ValidateDeposit(conf *Configuration, sender fluida.Address, msg *DepositNotificationMsg) (*Deposit, error) {
	if conf == nil || len(conf.Custodian) == 0 {
		return nil, errors.Wrap(ErrUnauthorizedSender, "custodian not configured")
	}
	if !conf.Custodian.Equals(sender) {
		return nil, errors.Wrapf(ErrUnauthorizedSender, "sender %s is not the custodian", sender)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if msg.Amount.IsZero() {
		return nil, errors.Wrap(ErrMalformedPayload, "zero amount")
	}
	if len(msg.Payload) != depositPayloadLength {
		return nil, errors.Wrapf(ErrMalformedPayload, "payload must be %d bytes, got %d", depositPayloadLength, len(msg.Payload))
	}
	p, err := ParseDepositPayload(msg.Payload)
	if err != nil {
		return nil, err
	}
	return &Deposit{
		Initiator: p.Depositor,
		Recipient: p.Recipient,
		Amount:    msg.Amount.Clone(),
		HashLock:  p.HashLock,
		TimeLock:  p.TimeLock,
	}, nil
}
