package htlc

import (
	"context"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

const scenarioTimeLock fluida.UnixTime = 1600000000

func ctxAt(now fluida.UnixTime) fluida.Context {
	return fluida.WithBlockTime(context.Background(), now.Time())
}

func depositTx(t testing.TB, initiator, recipient fluida.Address, amount uint64, preimage uint64) fluida.Tx {
	payload := depositPayload(t, initiator, recipient, HashLock(uint256.NewInt(preimage)), scenarioTimeLock)
	msg := &DepositNotificationMsg{Amount: uint256.NewInt(amount), Payload: payload}
	return &weavetest.Tx{Body: mustMarshal(t, msg)}
}

func completeTx(t testing.TB, id, preimage uint64) fluida.Tx {
	msg := &CompleteSwapMsg{SwapID: uint256.NewInt(id), Preimage: uint256.NewInt(preimage)}
	return &weavetest.Tx{Body: mustMarshal(t, msg)}
}

func refundTx(t testing.TB, id uint64) fluida.Tx {
	return &weavetest.Tx{Body: mustMarshal(t, &RefundSwapMsg{SwapID: uint256.NewInt(id)})}
}

func TestScenarioDepositAndComplete(t *testing.T) {
	f := newFixture(t)
	auth := &weavetest.Auth{Signer: f.custodian}
	d := NewDispatcher(auth)
	initiator := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()
	ctx := ctxAt(scenarioTimeLock - 10)

	res, err := d.Deliver(ctx, f.db, depositTx(t, initiator, recipient, 1000, 42))
	assert.Nil(t, err)
	assert.Equal(t, SwapKey(0), res.Data)

	swap, err := GetSwap(f.db, uint256.NewInt(0))
	assert.Nil(t, err)
	assert.Equal(t, false, swap.IsCompleted())
	assert.Equal(t, initiator, swap.Initiator)
	assert.Equal(t, recipient, swap.Recipient)

	// Anyone knowing the preimage can complete the swap.
	auth.Signer = weavetest.NewCondition()
	res, err = d.Deliver(ctx, f.db, completeTx(t, 0, 42))
	assert.Nil(t, err)
	transfer, err := DecodeTransfer(res.Data)
	assert.Nil(t, err)
	assert.Equal(t, recipient, transfer.Destination)
	assert.Equal(t, uint256.NewInt(1000), transfer.Amount)
	assert.Equal(t, uint64(0), transfer.QueryID)

	swap, err = GetSwap(f.db, uint256.NewInt(0))
	assert.Nil(t, err)
	assert.Equal(t, true, swap.IsCompleted())
	assert.Equal(t, SwapClaimed, swap.State)

	_, err = d.Deliver(ctx, f.db, completeTx(t, 0, 42))
	assert.IsErr(t, ErrAlreadyCompleted, err)
}

func TestScenarioRefund(t *testing.T) {
	f := newFixture(t)
	auth := &weavetest.Auth{Signer: f.custodian}
	d := NewDispatcher(auth)
	initiator := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()

	_, err := d.Deliver(ctxAt(scenarioTimeLock-100), f.db, depositTx(t, initiator, recipient, 1000, 42))
	assert.Nil(t, err)

	_, err = d.Check(ctxAt(scenarioTimeLock-1), f.db, refundTx(t, 0))
	assert.IsErr(t, ErrNotYetExpired, err)
	_, err = d.Deliver(ctxAt(scenarioTimeLock-1), f.db, refundTx(t, 0))
	assert.IsErr(t, ErrNotYetExpired, err)

	_, err = d.Check(ctxAt(scenarioTimeLock), f.db, refundTx(t, 0))
	assert.Nil(t, err)
	res, err := d.Deliver(ctxAt(scenarioTimeLock), f.db, refundTx(t, 0))
	assert.Nil(t, err)
	transfer, err := DecodeTransfer(res.Data)
	assert.Nil(t, err)
	assert.Equal(t, initiator, transfer.Destination)
	assert.Equal(t, uint256.NewInt(1000), transfer.Amount)

	swap, err := GetSwap(f.db, uint256.NewInt(0))
	assert.Nil(t, err)
	assert.Equal(t, SwapRefunded, swap.State)

	_, err = d.Deliver(ctxAt(scenarioTimeLock), f.db, completeTx(t, 0, 42))
	assert.IsErr(t, ErrAlreadyCompleted, err)
}

func TestScenarioUnauthorizedDeposit(t *testing.T) {
	f := newFixture(t)
	auth := &weavetest.Auth{Signer: weavetest.NewCondition()}
	d := NewDispatcher(auth)
	initiator := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()
	ctx := ctxAt(scenarioTimeLock - 10)

	bodies := map[string]fluida.Tx{
		"valid payload":     depositTx(t, initiator, recipient, 1000, 42),
		"malformed payload": &weavetest.Tx{Body: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0xFF}},
	}
	for name, tx := range bodies {
		t.Run(name, func(t *testing.T) {
			cres, err := d.Check(ctx, f.db, tx)
			assert.Nil(t, err)
			if !strings.HasPrefix(cres.Log, "dropped: ") {
				t.Fatalf("unexpected log: %q", cres.Log)
			}

			res, err := d.Deliver(ctx, f.db, tx)
			assert.Nil(t, err)
			assert.Nil(t, res.Data)
			if !strings.HasPrefix(res.Log, "dropped: ") {
				t.Fatalf("unexpected log: %q", res.Log)
			}

			counter, err := Counter(f.db)
			assert.Nil(t, err)
			assert.Equal(t, uint64(0), counter)
			ok, err := HasSwap(f.db, uint256.NewInt(0))
			assert.Nil(t, err)
			assert.Equal(t, false, ok)
		})
	}
}

func TestDispatcherInitialize(t *testing.T) {
	newCustodian := weavetest.NewCondition()

	cases := map[string]struct {
		Signer        func(*fixture) fluida.Condition
		Msg           *InitializeMsg
		WantErr       *errors.Error
		WantCustodian func(*fixture) fluida.Address
	}{
		"owner replaces the custodian": {
			Signer:        func(f *fixture) fluida.Condition { return f.owner },
			Msg:           &InitializeMsg{Custodian: newCustodian.Address()},
			WantCustodian: func(*fixture) fluida.Address { return newCustodian.Address() },
		},
		"custodian cannot replace itself": {
			Signer:        func(f *fixture) fluida.Condition { return f.custodian },
			Msg:           &InitializeMsg{Custodian: newCustodian.Address()},
			WantErr:       errors.ErrUnauthorized,
			WantCustodian: func(f *fixture) fluida.Address { return f.custodian.Address() },
		},
		"unsigned message": {
			Signer:        func(*fixture) fluida.Condition { return nil },
			Msg:           &InitializeMsg{Custodian: newCustodian.Address()},
			WantErr:       errors.ErrUnauthorized,
			WantCustodian: func(f *fixture) fluida.Address { return f.custodian.Address() },
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			d := NewDispatcher(&weavetest.Auth{Signer: tc.Signer(f)})
			tx := &weavetest.Tx{Body: mustMarshal(t, tc.Msg)}

			_, err := d.Check(ctxAt(1), f.db, tx)
			assert.IsErr(t, tc.WantErr, err)
			_, err = d.Deliver(ctxAt(1), f.db, tx)
			assert.IsErr(t, tc.WantErr, err)

			got, err := Custodian(f.db)
			assert.Nil(t, err)
			assert.Equal(t, tc.WantCustodian(f), got)
		})
	}
}

func TestDepositAfterCustodianChange(t *testing.T) {
	f := newFixture(t)
	newCustodian := weavetest.NewCondition()
	auth := &weavetest.Auth{Signer: f.owner}
	d := NewDispatcher(auth)
	ctx := ctxAt(10)
	initiator := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()

	_, err := d.Deliver(ctx, f.db, &weavetest.Tx{Body: mustMarshal(t, &InitializeMsg{Custodian: newCustodian.Address()})})
	assert.Nil(t, err)

	// The previous custodian is no longer trusted.
	auth.Signer = f.custodian
	res, err := d.Deliver(ctx, f.db, depositTx(t, initiator, recipient, 5, 1))
	assert.Nil(t, err)
	assert.Nil(t, res.Data)

	auth.Signer = newCustodian
	res, err = d.Deliver(ctx, f.db, depositTx(t, initiator, recipient, 5, 1))
	assert.Nil(t, err)
	assert.Equal(t, SwapKey(0), res.Data)
}

func TestDispatcherRejections(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(&weavetest.Auth{Signer: f.custodian})
	ctx := ctxAt(10)

	cases := map[string]struct {
		Body    []byte
		WantErr *errors.Error
	}{
		"unknown operation": {
			Body:    []byte{0xCA, 0xFE, 0xBA, 0xBE},
			WantErr: ErrUnknownOperation,
		},
		"complete with trailing bytes": {
			Body:    append(mustMarshal(t, &CompleteSwapMsg{SwapID: uint256.NewInt(0), Preimage: uint256.NewInt(1)}), 0),
			WantErr: ErrMalformedPayload,
		},
		"refund of a missing swap": {
			Body:    mustMarshal(t, &RefundSwapMsg{SwapID: uint256.NewInt(3)}),
			WantErr: ErrSwapNotFound,
		},
		"deposit with a malformed payload": {
			Body:    mustMarshal(t, &DepositNotificationMsg{Amount: uint256.NewInt(1), Payload: []byte{1, 2, 3}}),
			WantErr: ErrMalformedPayload,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := d.Check(ctx, f.db, &weavetest.Tx{Body: tc.Body})
			assert.IsErr(t, tc.WantErr, err)
			_, err = d.Deliver(ctx, f.db, &weavetest.Tx{Body: tc.Body})
			assert.IsErr(t, tc.WantErr, err)
		})
	}

	_, err := d.Dispatch(ctx, f.db, nil)
	assert.IsErr(t, ErrUnknownOperation, err)
}

func TestCheckDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(&weavetest.Auth{Signer: f.custodian})
	ctx := ctxAt(10)
	initiator := weavetest.NewCondition().Address()

	_, err := d.Check(ctx, f.db, depositTx(t, initiator, initiator, 5, 1))
	assert.Nil(t, err)
	counter, err := Counter(f.db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), counter)

	_, err = d.Deliver(ctx, f.db, depositTx(t, initiator, initiator, 5, 1))
	assert.Nil(t, err)
	_, err = d.Check(ctx, f.db, completeTx(t, 0, 1))
	assert.Nil(t, err)
	swap, err := GetSwap(f.db, uint256.NewInt(0))
	assert.Nil(t, err)
	assert.Equal(t, SwapPending, swap.State)

	_, err = d.Check(ctx, f.db, completeTx(t, 0, 2))
	assert.IsErr(t, ErrHashMismatch, err)
}
