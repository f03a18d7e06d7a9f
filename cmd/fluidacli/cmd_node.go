package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
	"github.com/urfave/cli"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/app"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/htlc"
	"github.com/fluida-labs/fluida/x/sigs"
)

// nodeClient is the subset of the tendermint RPC client used by the
// commands.
type nodeClient interface {
	ABCIQuery(path string, data cmn.HexBytes) (*ctypes.ResultABCIQuery, error)
	BroadcastTxCommit(tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error)
}

var _ nodeClient = (*client.HTTP)(nil)

func dialHTTP(remote string) nodeClient {
	return client.NewHTTP(remote, "/websocket")
}

// abciQuery runs the query and returns the models found under given path.
func abciQuery(node nodeClient, path string, data []byte) ([]fluida.Model, error) {
	q, err := node.ABCIQuery(path, data)
	if err != nil {
		return nil, errors.Wrap(err, "abci query")
	}
	resp := q.Response
	if resp.IsErr() {
		return nil, errors.Wrapf(errors.ErrNotFound, "(%d): %s", resp.Code, resp.Log)
	}
	if len(resp.Key) == 0 {
		return nil, nil
	}
	var keys, vals app.ResultSet
	if err := keys.Unmarshal(resp.Key); err != nil {
		return nil, errors.Wrap(err, "keys")
	}
	if err := vals.Unmarshal(resp.Value); err != nil {
		return nil, errors.Wrap(err, "values")
	}
	return app.JoinResults(&keys, &vals)
}

// nextSequence returns the sequence the signer must use for the next
// transaction.
func nextSequence(node nodeClient, signer fluida.Address) (int64, error) {
	models, err := abciQuery(node, "/auth", signer)
	if err != nil {
		return 0, err
	}
	if len(models) == 0 {
		return 0, nil
	}
	var user sigs.UserData
	if err := user.Unmarshal(models[0].Value); err != nil {
		return 0, errors.Wrap(err, "user data")
	}
	return user.Sequence, nil
}

// submit broadcasts a hex encoded transaction and waits until it is
// committed. Only failures to reach the node are retried with an
// exponential backoff. Any other error may come after the node accepted the
// transaction into its mempool, so it is returned as is.
func (e *env) submit(c *cli.Context) error {
	raw, err := e.readHex()
	if err != nil {
		return err
	}
	if _, err := app.TxDecoder(raw); err != nil {
		return errors.Wrap(err, "transaction")
	}
	node := e.dial(c.String("node"))

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.Duration("timeout")

	var res *ctypes.ResultBroadcastTxCommit
	err = backoff.Retry(func() error {
		r, err := node.BroadcastTxCommit(raw)
		if err != nil {
			if isConnectionError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if r.CheckTx.IsErr() {
			return backoff.Permanent(errors.Wrapf(errors.ErrState, "check tx (%d): %s", r.CheckTx.Code, r.CheckTx.Log))
		}
		if r.DeliverTx.IsErr() {
			return backoff.Permanent(errors.Wrapf(errors.ErrState, "deliver tx (%d): %s", r.DeliverTx.Code, r.DeliverTx.Log))
		}
		res = r
		return nil
	}, strategy)
	if err != nil {
		return errors.Wrap(err, "broadcast")
	}

	out := struct {
		Height int64  `json:"height"`
		Hash   string `json:"hash"`
		Log    string `json:"log,omitempty"`
		Data   string `json:"data,omitempty"`
	}{
		Height: res.Height,
		Hash:   res.Hash.String(),
		Log:    res.DeliverTx.Log,
		Data:   hex.EncodeToString(res.DeliverTx.Data),
	}
	return e.printJSON(out)
}

// isConnectionError reports whether the request failed before reaching the
// node. Timeouts are excluded: the node may have received the transaction.
func isConnectionError(err error) bool {
	netErr, ok := pkgerrors.Cause(err).(net.Error)
	return ok && !netErr.Timeout()
}

func (e *env) querySwap(c *cli.Context) error {
	id, err := htlc.ParseAmount(c.String("id"))
	if err != nil {
		return errors.Wrap(err, "swap id")
	}
	key := id.Bytes32()
	models, err := abciQuery(e.dial(c.String("node")), "/htlc/swap", key[:])
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errors.Wrapf(htlc.ErrSwapNotFound, "swap %s", id.ToBig())
	}
	var swap htlc.Swap
	if err := swap.Unmarshal(models[0].Value); err != nil {
		return errors.Wrap(err, "swap")
	}
	return e.printJSON(&swap)
}

func (e *env) printJSON(v interface{}) error {
	pretty, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, "json")
	}
	_, err = fmt.Fprintln(e.out, string(pretty))
	return err
}

// retryTimeout bounds the submission retries when no timeout flag is set.
const retryTimeout = time.Minute
