package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli"
	"golang.org/x/crypto/ed25519"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/app"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/htlc"
	"github.com/fluida-labs/fluida/x/sigs"
)

// sign reads a hex encoded message body and prints the hex encoded signed
// transaction. When no sequence is given, the next sequence of the signer
// is read from the node.
func (e *env) sign(c *cli.Context) error {
	body, err := e.readHex()
	if err != nil {
		return err
	}
	if _, err := htlc.DecodeMsg(body); err != nil {
		return errors.Wrap(err, "message")
	}
	key, err := loadKey(c.String("key"))
	if err != nil {
		return err
	}
	chainID := c.String("chain-id")
	if !fluida.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id %q", chainID)
	}

	seq := c.Int64("seq")
	if seq < 0 {
		signer := sigs.PubKeyAddress(key.Public().(ed25519.PublicKey))
		seq, err = nextSequence(e.dial(c.String("node")), signer)
		if err != nil {
			return errors.Wrap(err, "query sequence")
		}
	}

	tx := app.NewTx(body)
	if err := tx.Sign(key, chainID, seq); err != nil {
		return err
	}
	raw, err := tx.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal transaction")
	}
	_, err = fmt.Fprintln(e.out, hex.EncodeToString(raw))
	return err
}

// view prints a human readable representation of a signed transaction or
// an unsigned message body.
func (e *env) view(c *cli.Context) error {
	raw, err := e.readHex()
	if err != nil {
		return err
	}

	var v txView
	var tx app.Tx
	if msg, err := htlc.DecodeMsg(raw); err == nil {
		v.Msg = msg
	} else if err := tx.Unmarshal(raw); err == nil {
		v.Signer = sigs.PubKeyAddress(tx.Signature.Pubkey)
		v.Sequence = &tx.Signature.Sequence
		v.Msg, err = htlc.DecodeMsg(tx.Body)
		if err != nil {
			return errors.Wrap(err, "message")
		}
	} else {
		return errors.Wrap(errors.ErrInput, "neither a transaction nor a message")
	}
	v.Op = htlc.OpName(v.Msg.Op())

	return e.printJSON(v)
}

type txView struct {
	Signer   fluida.Address `json:"signer,omitempty"`
	Sequence *int64         `json:"sequence,omitempty"`
	Op       string         `json:"op"`
	Msg      htlc.Msg       `json:"-"`
}

func (v txView) MarshalJSON() ([]byte, error) {
	type plain txView
	return json.Marshal(struct {
		plain
		Fields map[string]string `json:"msg"`
	}{
		plain:  plain(v),
		Fields: msgFields(v.Msg),
	})
}

func msgFields(msg htlc.Msg) map[string]string {
	switch m := msg.(type) {
	case *htlc.InitializeMsg:
		return map[string]string{"custodian": m.Custodian.String()}
	case *htlc.DepositNotificationMsg:
		fields := map[string]string{
			"amount":  m.Amount.ToBig().String(),
			"payload": hex.EncodeToString(m.Payload),
		}
		if p, err := htlc.ParseDepositPayload(m.Payload); err == nil {
			fields["depositor"] = p.Depositor.String()
			fields["recipient"] = p.Recipient.String()
			fields["hashlock"] = hex.EncodeToString(p.HashLock)
			fields["timelock"] = p.TimeLock.String()
		}
		return fields
	case *htlc.CompleteSwapMsg:
		return map[string]string{
			"id":       m.SwapID.ToBig().String(),
			"preimage": m.Preimage.ToBig().String(),
		}
	case *htlc.RefundSwapMsg:
		return map[string]string{"id": m.SwapID.ToBig().String()}
	default:
		return nil
	}
}
