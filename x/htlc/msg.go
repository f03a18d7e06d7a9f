package htlc

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// Operation codes of the inbound messages.
const (
	OpInitialize uint32 = 0x00000001
	OpDeposit    uint32 = 0xDEADBEEF
	OpComplete   uint32 = 0x87654321
	OpRefund     uint32 = 0xABCDEF12
)

const (
	// amountWidth is the byte width of token amounts on the wire.
	amountWidth = 16
	// idWidth is the byte width of swap ids and preimages on the wire.
	idWidth = 32
	// depositPayloadLength is the size of the application payload attached
	// to a deposit notification.
	depositPayloadLength = 2*fluida.AddressLength + HashLength + 8
)

// Msg is one of the operations understood by the dispatcher.
type Msg interface {
	// Op returns the operation code that prefixes the encoded message.
	Op() uint32
	// Marshal returns the message body, including the operation code.
	Marshal() ([]byte, error)
	Validate() error

	isMsg()
}

// OpName returns a human readable name of the operation code.
func OpName(op uint32) string {
	switch op {
	case OpInitialize:
		return "initialize"
	case OpDeposit:
		return "deposit"
	case OpComplete:
		return "complete"
	case OpRefund:
		return "refund"
	default:
		return fmt.Sprintf("0x%08x", op)
	}
}

// DecodeMsg parses the raw message body. The body must be exactly the size
// required by the operation, otherwise ErrMalformedPayload is returned.
func DecodeMsg(body []byte) (Msg, error) {
	r := &payloadReader{data: body}
	op := r.uint32("op")
	if r.err != nil {
		return nil, r.err
	}

	var msg Msg
	switch op {
	case OpInitialize:
		msg = &InitializeMsg{
			Custodian: r.address("custodian"),
		}
	case OpDeposit:
		msg = &DepositNotificationMsg{
			Amount:  r.uint("amount", amountWidth),
			Payload: append([]byte(nil), r.data...),
		}
		r.data = nil
	case OpComplete:
		msg = &CompleteSwapMsg{
			SwapID:   r.uint("swap id", idWidth),
			Preimage: r.uint("preimage", idWidth),
		}
	case OpRefund:
		msg = &RefundSwapMsg{
			SwapID: r.uint("swap id", idWidth),
		}
	default:
		return nil, errors.Wrapf(ErrUnknownOperation, "op 0x%08x", op)
	}
	if err := r.finish(); err != nil {
		return nil, errors.Wrap(err, OpName(op))
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// InitializeMsg sets the authorized custodian.
type InitializeMsg struct {
	Custodian fluida.Address
}

func (*InitializeMsg) Op() uint32 { return OpInitialize }
func (*InitializeMsg) isMsg()     {}

func (m *InitializeMsg) Validate() error {
	if err := m.Custodian.Validate(); err != nil {
		return errors.Wrap(ErrMalformedPayload, "custodian")
	}
	return nil
}

func (m *InitializeMsg) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var w payloadWriter
	w.uint32(OpInitialize)
	w.bytes(m.Custodian)
	return w.data, nil
}

// DepositNotificationMsg is forwarded by the token custodian when tokens
// were transferred to the swap engine. The payload describes the swap and
// is validated only after the sender was authorized.
type DepositNotificationMsg struct {
	Amount  *uint256.Int
	Payload []byte
}

func (*DepositNotificationMsg) Op() uint32 { return OpDeposit }
func (*DepositNotificationMsg) isMsg()     {}

func (m *DepositNotificationMsg) Validate() error {
	if m.Amount == nil {
		return errors.Wrap(ErrMalformedPayload, "missing amount")
	}
	if m.Amount.BitLen() > amountWidth*8 {
		return errors.Wrap(ErrMalformedPayload, "amount exceeds 128 bits")
	}
	return nil
}

func (m *DepositNotificationMsg) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var w payloadWriter
	w.uint32(OpDeposit)
	w.uint(m.Amount, amountWidth)
	w.bytes(m.Payload)
	return w.data, nil
}

// DepositPayload is the application payload attached to a deposit
// notification.
type DepositPayload struct {
	Depositor fluida.Address
	Recipient fluida.Address
	HashLock  []byte
	TimeLock  fluida.UnixTime
}

// ParseDepositPayload decodes the fixed layout
//
//	depositor (20) | recipient (20) | hash lock (32) | time lock u64 (8)
func ParseDepositPayload(raw []byte) (*DepositPayload, error) {
	r := &payloadReader{data: raw}
	p := DepositPayload{
		Depositor: r.address("depositor"),
		Recipient: r.address("recipient"),
		HashLock:  r.bytes("hash lock", HashLength),
	}
	timeLock := r.uint64("time lock")
	if err := r.finish(); err != nil {
		return nil, err
	}
	if timeLock > 1<<63-1 {
		return nil, errors.Wrap(ErrMalformedPayload, "time lock out of range")
	}
	p.TimeLock = fluida.UnixTime(timeLock)
	return &p, nil
}

func (p *DepositPayload) Marshal() ([]byte, error) {
	if len(p.Depositor) != fluida.AddressLength || len(p.Recipient) != fluida.AddressLength {
		return nil, errors.Wrap(ErrMalformedPayload, "address length")
	}
	if len(p.HashLock) != HashLength {
		return nil, errors.Wrap(ErrMalformedPayload, "hash lock length")
	}
	if p.TimeLock < 0 {
		return nil, errors.Wrap(ErrMalformedPayload, "negative time lock")
	}
	var w payloadWriter
	w.bytes(p.Depositor)
	w.bytes(p.Recipient)
	w.bytes(p.HashLock)
	w.uint64(uint64(p.TimeLock))
	return w.data, nil
}

// CompleteSwapMsg releases the swap funds to the recipient.
type CompleteSwapMsg struct {
	SwapID   *uint256.Int
	Preimage *uint256.Int
}

func (*CompleteSwapMsg) Op() uint32 { return OpComplete }
func (*CompleteSwapMsg) isMsg()     {}

func (m *CompleteSwapMsg) Validate() error {
	if m.SwapID == nil || m.Preimage == nil {
		return errors.Wrap(ErrMalformedPayload, "swap id and preimage required")
	}
	return nil
}

func (m *CompleteSwapMsg) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var w payloadWriter
	w.uint32(OpComplete)
	w.uint(m.SwapID, idWidth)
	w.uint(m.Preimage, idWidth)
	return w.data, nil
}

// RefundSwapMsg returns the swap funds to the initiator.
type RefundSwapMsg struct {
	SwapID *uint256.Int
}

func (*RefundSwapMsg) Op() uint32 { return OpRefund }
func (*RefundSwapMsg) isMsg()     {}

func (m *RefundSwapMsg) Validate() error {
	if m.SwapID == nil {
		return errors.Wrap(ErrMalformedPayload, "swap id required")
	}
	return nil
}

func (m *RefundSwapMsg) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var w payloadWriter
	w.uint32(OpRefund)
	w.uint(m.SwapID, idWidth)
	return w.data, nil
}
