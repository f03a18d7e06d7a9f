/*
fluidacli is a command line client for the fluida swap engine.

Commands are small and composable. Message commands print the hex encoded
message body, which can be signed and submitted in a pipeline:

  $ fluidacli deposit -amount 1000 -depositor ... -recipient ... -preimage 42 -expires-in 1h \
      | fluidacli sign -key custodian.key -chain-id fluida-test \
      | fluidacli submit
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/fluida-labs/fluida"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds the input and output used by all commands.
type env struct {
	in   io.Reader
	out  io.Writer
	dial func(remote string) nodeClient
}

func newApp(input io.Reader, output io.Writer) *cli.App {
	e := &env{in: input, out: output, dial: dialHTTP}
	return e.app()
}

func (e *env) app() *cli.App {
	app := cli.NewApp()
	app.Name = "fluidacli"
	app.Usage = "fluida swap engine client"
	app.Version = fluida.Version()
	app.Writer = e.out
	app.ErrWriter = e.out
	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "Generate a new private key file",
			Flags:  []cli.Flag{keyFlag},
			Action: e.keygen,
		},
		{
			Name:   "keyaddr",
			Usage:  "Print the address of a private key",
			Flags:  []cli.Flag{keyFlag},
			Action: e.keyaddr,
		},
		{
			Name:  "hashlock",
			Usage: "Print the hash lock of a preimage",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "preimage", Usage: "preimage as decimal or 0x prefixed number", Required: true},
			},
			Action: e.hashlock,
		},
		{
			Name:  "initialize",
			Usage: "Create a message that sets the authorized custodian",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "custodian", Usage: "custodian address", Required: true},
			},
			Action: e.initialize,
		},
		{
			Name:  "deposit",
			Usage: "Create a deposit notification message",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "amount", Usage: "deposited amount", Required: true},
				cli.StringFlag{Name: "depositor", Usage: "address refunded after expiry", Required: true},
				cli.StringFlag{Name: "recipient", Usage: "address paid on completion", Required: true},
				cli.StringFlag{Name: "hashlock", Usage: "hex encoded hash lock"},
				cli.StringFlag{Name: "preimage", Usage: "compute the hash lock from this preimage"},
				cli.Int64Flag{Name: "timelock", Usage: "expiration as unix time"},
				cli.DurationFlag{Name: "expires-in", Usage: "expiration relative to now"},
			},
			Action: e.deposit,
		},
		{
			Name:  "complete",
			Usage: "Create a message that completes a swap",
			Flags: []cli.Flag{
				swapIDFlag,
				cli.StringFlag{Name: "preimage", Usage: "preimage as decimal or 0x prefixed number", Required: true},
			},
			Action: e.complete,
		},
		{
			Name:   "refund",
			Usage:  "Create a message that refunds an expired swap",
			Flags:  []cli.Flag{swapIDFlag},
			Action: e.refund,
		},
		{
			Name:  "sign",
			Usage: "Sign a message read from input and print the transaction",
			Flags: []cli.Flag{
				keyFlag,
				chainIDFlag,
				cli.Int64Flag{Name: "seq", Value: -1, Usage: "signer sequence, queried from the node when not set"},
				nodeFlag,
			},
			Action: e.sign,
		},
		{
			Name:   "view",
			Usage:  "Decode a transaction read from input",
			Action: e.view,
		},
		{
			Name:  "submit",
			Usage: "Broadcast a transaction read from input",
			Flags: []cli.Flag{
				nodeFlag,
				cli.DurationFlag{Name: "timeout", Value: retryTimeout, Usage: "give up retrying after this time"},
			},
			Action: e.submit,
		},
		{
			Name:  "swap",
			Usage: "Query a swap",
			Flags: []cli.Flag{
				nodeFlag,
				swapIDFlag,
			},
			Action: e.querySwap,
		},
	}
	return app
}

var (
	keyFlag = cli.StringFlag{
		Name:   "key",
		Value:  os.Getenv("HOME") + "/.fluida.priv.key",
		EnvVar: "FLUIDACLI_PRIV_KEY",
		Usage:  "path to the private key file",
	}
	chainIDFlag = cli.StringFlag{
		Name:     "chain-id",
		EnvVar:   "FLUIDACLI_CHAIN_ID",
		Usage:    "chain the transaction is signed for",
		Required: true,
	}
	nodeFlag = cli.StringFlag{
		Name:   "node",
		Value:  "http://localhost:26657",
		EnvVar: "FLUIDACLI_NODE",
		Usage:  "tendermint RPC address",
	}
	swapIDFlag = cli.StringFlag{
		Name:     "id",
		Usage:    "swap id as decimal or 0x prefixed number",
		Required: true,
	}
)
