package htlc

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestMsgEncoding(t *testing.T) {
	custodian := weavetest.NewCondition().Address()
	payload := depositPayload(t, weavetest.NewCondition().Address(), weavetest.NewCondition().Address(), HashLock(uint256.NewInt(7)), 1000)

	cases := map[string]struct {
		Msg      Msg
		WantSize int
		WantOp   []byte
	}{
		"initialize": {
			Msg:      &InitializeMsg{Custodian: custodian},
			WantSize: 4 + 20,
			WantOp:   []byte{0x00, 0x00, 0x00, 0x01},
		},
		"deposit": {
			Msg:      &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload},
			WantSize: 4 + 16 + 80,
			WantOp:   []byte{0xDE, 0xAD, 0xBE, 0xEF},
		},
		"complete": {
			Msg:      &CompleteSwapMsg{SwapID: uint256.NewInt(3), Preimage: uint256.NewInt(42)},
			WantSize: 4 + 32 + 32,
			WantOp:   []byte{0x87, 0x65, 0x43, 0x21},
		},
		"refund": {
			Msg:      &RefundSwapMsg{SwapID: uint256.NewInt(9)},
			WantSize: 4 + 32,
			WantOp:   []byte{0xAB, 0xCD, 0xEF, 0x12},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			raw := mustMarshal(t, tc.Msg)
			assert.Equal(t, tc.WantSize, len(raw))
			assert.Equal(t, tc.WantOp, raw[:4])

			got, err := DecodeMsg(raw)
			assert.Nil(t, err)
			assert.Equal(t, tc.Msg, got)

			_, err = DecodeMsg(append(raw, 0))
			if tc.Msg.Op() != OpDeposit {
				// Deposit payload is validated only after the
				// sender was authorized.
				assert.IsErr(t, ErrMalformedPayload, err)
			}
			_, err = DecodeMsg(raw[:len(raw)-1])
			if tc.Msg.Op() != OpDeposit {
				assert.IsErr(t, ErrMalformedPayload, err)
			}
		})
	}
}

func TestDecodeMsgErrors(t *testing.T) {
	cases := map[string]struct {
		Body    []byte
		WantErr *errors.Error
	}{
		"empty body": {
			Body:    nil,
			WantErr: ErrMalformedPayload,
		},
		"truncated op code": {
			Body:    []byte{0xDE, 0xAD},
			WantErr: ErrMalformedPayload,
		},
		"unknown op code": {
			Body:    []byte{0x12, 0x34, 0x56, 0x78, 0x00},
			WantErr: ErrUnknownOperation,
		},
		"transfer op is not accepted": {
			Body:    []byte{0x0f, 0x8a, 0x7e, 0xa5},
			WantErr: ErrUnknownOperation,
		},
		"deposit without amount": {
			Body:    []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01},
			WantErr: ErrMalformedPayload,
		},
		"refund without id": {
			Body:    []byte{0xAB, 0xCD, 0xEF, 0x12},
			WantErr: ErrMalformedPayload,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := DecodeMsg(tc.Body)
			assert.IsErr(t, tc.WantErr, err)
		})
	}
}

func TestBigEndianFields(t *testing.T) {
	raw := mustMarshal(t, &RefundSwapMsg{SwapID: uint256.NewInt(0x0102)})
	want := append([]byte{0xAB, 0xCD, 0xEF, 0x12}, make([]byte, 30)...)
	want = append(want, 0x01, 0x02)
	assert.Equal(t, want, raw)

	msg := &DepositNotificationMsg{Amount: new(uint256.Int).Lsh(uint256.NewInt(1), 128)}
	_, err := msg.Marshal()
	assert.IsErr(t, ErrMalformedPayload, err)
}

func TestParseDepositPayload(t *testing.T) {
	depositor := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()
	hash := HashLock(uint256.NewInt(5))

	raw := depositPayload(t, depositor, recipient, hash, 1234567890)
	assert.Equal(t, 80, len(raw))

	p, err := ParseDepositPayload(raw)
	assert.Nil(t, err)
	assert.Equal(t, depositor, p.Depositor)
	assert.Equal(t, recipient, p.Recipient)
	assert.Equal(t, hash, p.HashLock)
	assert.Equal(t, fluida.UnixTime(1234567890), p.TimeLock)

	_, err = ParseDepositPayload(raw[:79])
	assert.IsErr(t, ErrMalformedPayload, err)
	_, err = ParseDepositPayload(append(raw, 1))
	assert.IsErr(t, ErrMalformedPayload, err)

	huge := append([]byte(nil), raw...)
	copy(huge[72:], bytes.Repeat([]byte{0xFF}, 8))
	_, err = ParseDepositPayload(huge)
	assert.IsErr(t, ErrMalformedPayload, err)
}

func TestTransferInstruction(t *testing.T) {
	dest := weavetest.NewCondition().Address()
	tr := newTransfer(7, uint256.NewInt(1000), dest)

	raw, err := tr.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, 4+8+16+20+20, len(raw))
	assert.Equal(t, []byte{0x0f, 0x8a, 0x7e, 0xa5}, raw[:4])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 7}, raw[4:12])
	assert.Equal(t, []byte{0x03, 0xE8}, raw[26:28])
	assert.Equal(t, []byte(dest), raw[28:48])

	got, err := DecodeTransfer(raw)
	assert.Nil(t, err)
	assert.Equal(t, tr, got)

	_, err = DecodeTransfer(raw[:50])
	assert.IsErr(t, ErrMalformedPayload, err)
	_, err = DecodeTransfer(mustMarshal(t, &RefundSwapMsg{SwapID: uint256.NewInt(1)}))
	assert.IsErr(t, ErrUnknownOperation, err)
}
