package htlc

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestValidateDeposit(t *testing.T) {
	custodian := weavetest.NewCondition().Address()
	depositor := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()
	hash := HashLock(uint256.NewInt(42))
	payload := depositPayload(t, depositor, recipient, hash, 2000)
	conf := &Configuration{Custodian: custodian}

	cases := map[string]struct {
		Conf    *Configuration
		Sender  fluida.Address
		Msg     *DepositNotificationMsg
		WantErr *errors.Error
	}{
		"valid deposit": {
			Conf:   conf,
			Sender: custodian,
			Msg:    &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload},
		},
		"sender is not the custodian": {
			Conf:    conf,
			Sender:  depositor,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload},
			WantErr: ErrUnauthorizedSender,
		},
		"sender is not the custodian and payload is malformed": {
			Conf:    conf,
			Sender:  depositor,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: []byte("garbage")},
			WantErr: ErrUnauthorizedSender,
		},
		"missing sender": {
			Conf:    conf,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload},
			WantErr: ErrUnauthorizedSender,
		},
		"custodian not configured": {
			Conf:    &Configuration{},
			Sender:  custodian,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload},
			WantErr: ErrUnauthorizedSender,
		},
		"payload too short": {
			Conf:    conf,
			Sender:  custodian,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: payload[:60]},
			WantErr: ErrMalformedPayload,
		},
		"payload too long": {
			Conf:    conf,
			Sender:  custodian,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(1000), Payload: append(append([]byte(nil), payload...), 0)},
			WantErr: ErrMalformedPayload,
		},
		"zero amount": {
			Conf:    conf,
			Sender:  custodian,
			Msg:     &DepositNotificationMsg{Amount: uint256.NewInt(0), Payload: payload},
			WantErr: ErrMalformedPayload,
		},
		"amount above 128 bits": {
			Conf:    conf,
			Sender:  custodian,
			Msg:     &DepositNotificationMsg{Amount: new(uint256.Int).Lsh(uint256.NewInt(1), 130), Payload: payload},
			WantErr: ErrMalformedPayload,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			dep, err := ValidateDeposit(tc.Conf, tc.Sender, tc.Msg)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}
			assert.Equal(t, depositor, dep.Initiator)
			assert.Equal(t, recipient, dep.Recipient)
			assert.Equal(t, uint256.NewInt(1000), dep.Amount)
			assert.Equal(t, hash, dep.HashLock)
			assert.Equal(t, fluida.UnixTime(2000), dep.TimeLock)
		})
	}
}
