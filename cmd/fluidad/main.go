package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/commands/server"
)

var (
	flagHome = "home"
	varHome  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".fluidad")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
}

func helpMessage() {
	fmt.Fprint(flag.CommandLine.Output(), `fluidad
        Hash time-locked swap engine ABCI application

help    Print this message
init    Initialize app state in genesis file
        -owner <addr> [-custodian <addr>] [-chain-id <id>] [-genesis <file>]
start   Run the abci server and the HTTP query API
        [-bind <addr>] [-http <addr>] [-store iavl|bolt] [-debug]
version Print the app version
`+"\n")
	flag.PrintDefaults()
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "fluida")

	flag.Usage = helpMessage
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(logger, *varHome, rest)
	case "start":
		err = server.StartCmd(logger, *varHome, rest)
	case "version":
		fmt.Println(fluida.Version())
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		helpMessage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}
