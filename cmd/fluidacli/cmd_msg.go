package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/htlc"
)

func (e *env) hashlock(c *cli.Context) error {
	preimage, err := htlc.ParseAmount(c.String("preimage"))
	if err != nil {
		return errors.Wrap(err, "preimage")
	}
	_, err = fmt.Fprintln(e.out, hex.EncodeToString(htlc.HashLock(preimage)))
	return err
}

func (e *env) initialize(c *cli.Context) error {
	custodian, err := fluida.ParseAddress(c.String("custodian"))
	if err != nil {
		return errors.Wrap(err, "custodian")
	}
	return e.writeMsg(&htlc.InitializeMsg{Custodian: custodian})
}

func (e *env) deposit(c *cli.Context) error {
	amount, err := htlc.ParseAmount(c.String("amount"))
	if err != nil {
		return errors.Wrap(err, "amount")
	}
	depositor, err := fluida.ParseAddress(c.String("depositor"))
	if err != nil {
		return errors.Wrap(err, "depositor")
	}
	recipient, err := fluida.ParseAddress(c.String("recipient"))
	if err != nil {
		return errors.Wrap(err, "recipient")
	}

	var hashLock []byte
	switch h, p := c.String("hashlock"), c.String("preimage"); {
	case h != "" && p != "":
		return errors.Wrap(errors.ErrInput, "hashlock and preimage are mutually exclusive")
	case h != "":
		hashLock, err = hex.DecodeString(strings.TrimPrefix(h, "0x"))
		if err != nil || len(hashLock) != htlc.HashLength {
			return errors.Wrapf(errors.ErrInput, "hashlock must be %d hex encoded bytes", htlc.HashLength)
		}
	case p != "":
		preimage, err := htlc.ParseAmount(p)
		if err != nil {
			return errors.Wrap(err, "preimage")
		}
		hashLock = htlc.HashLock(preimage)
	default:
		return errors.Wrap(errors.ErrEmpty, "hashlock or preimage required")
	}

	var timeLock fluida.UnixTime
	switch t, in := c.Int64("timelock"), c.Duration("expires-in"); {
	case t != 0 && in != 0:
		return errors.Wrap(errors.ErrInput, "timelock and expires-in are mutually exclusive")
	case t != 0:
		timeLock = fluida.UnixTime(t)
	case in != 0:
		timeLock = fluida.AsUnixTime(time.Now().Add(in))
	default:
		return errors.Wrap(errors.ErrEmpty, "timelock or expires-in required")
	}

	payload, err := (&htlc.DepositPayload{
		Depositor: depositor,
		Recipient: recipient,
		HashLock:  hashLock,
		TimeLock:  timeLock,
	}).Marshal()
	if err != nil {
		return errors.Wrap(err, "payload")
	}
	return e.writeMsg(&htlc.DepositNotificationMsg{Amount: amount, Payload: payload})
}

func (e *env) complete(c *cli.Context) error {
	id, err := htlc.ParseAmount(c.String("id"))
	if err != nil {
		return errors.Wrap(err, "swap id")
	}
	preimage, err := htlc.ParseAmount(c.String("preimage"))
	if err != nil {
		return errors.Wrap(err, "preimage")
	}
	return e.writeMsg(&htlc.CompleteSwapMsg{SwapID: id, Preimage: preimage})
}

func (e *env) refund(c *cli.Context) error {
	id, err := htlc.ParseAmount(c.String("id"))
	if err != nil {
		return errors.Wrap(err, "swap id")
	}
	return e.writeMsg(&htlc.RefundSwapMsg{SwapID: id})
}

func (e *env) writeMsg(msg htlc.Msg) error {
	body, err := msg.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	_, err = fmt.Fprintln(e.out, hex.EncodeToString(body))
	return err
}

// readHex reads a single hex encoded value from the input.
func (e *env) readHex() ([]byte, error) {
	raw, err := ioutil.ReadAll(e.in)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")
	if s == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "no input")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "input is not hex encoded")
	}
	return b, nil
}
