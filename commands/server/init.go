package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/app"
	"github.com/fluida-labs/fluida/errors"
)

const (
	flagChainID   = "chain-id"
	flagOwner     = "owner"
	flagCustodian = "custodian"
	flagGenesis   = "genesis"
)

type initArgs struct {
	chainID   string
	owner     fluida.Address
	custodian fluida.Address
	genesis   string
}

func parseInitArgs(home string, args []string) (initArgs, error) {
	var (
		res              initArgs
		owner, custodian string
	)
	defaultGenesisPath := filepath.Join(home, "config", "genesis.json")
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.StringVar(&res.chainID, flagChainID, "", "chain id, used only when a new genesis file is created")
	fs.StringVar(&owner, flagOwner, "", "address allowed to change the custodian (required)")
	fs.StringVar(&custodian, flagCustodian, "", "address of the authorized custodian")
	fs.StringVar(&res.genesis, flagGenesis, defaultGenesisPath, "genesis file to update or create")
	if err := fs.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}

	if owner == "" {
		return res, errors.Wrap(errors.ErrEmpty, "owner address is required")
	}
	var err error
	if res.owner, err = fluida.ParseAddress(owner); err != nil {
		return res, errors.Wrap(err, "owner")
	}
	if custodian != "" {
		if res.custodian, err = fluida.ParseAddress(custodian); err != nil {
			return res, errors.Wrap(err, "custodian")
		}
	}
	return res, nil
}

// InitCmd writes the application state into the genesis file and creates
// the daemon configuration if it does not exist yet.
//
// An existing genesis file, for example created by "tendermint init", is
// updated in place. Otherwise a new one is created.
func InitCmd(logger log.Logger, home string, args []string) error {
	flags, err := parseInitArgs(home, args)
	if err != nil {
		return err
	}

	appState, err := app.NewGenesisState(flags.owner, flags.custodian).AppState()
	if err != nil {
		return err
	}

	if fileExists(flags.genesis) {
		if err := addGenesisOptions(flags.genesis, appState); err != nil {
			return err
		}
		logger.Info("Updated genesis file", "path", flags.genesis)
	} else {
		if err := createGenesis(flags.genesis, flags.chainID, appState); err != nil {
			return err
		}
		logger.Info("Created genesis file", "path", flags.genesis)
	}

	if fileExists(filepath.Join(home, ConfigFile)) {
		logger.Info("Found configuration", "path", filepath.Join(home, ConfigFile))
		return nil
	}
	if err := WriteConfig(home, DefaultConfig()); err != nil {
		return err
	}
	logger.Info("Created configuration", "path", filepath.Join(home, ConfigFile))
	return nil
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage) error {
	bz, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis %s: %s", filename, err)
	}
	doc["app_state"] = options
	return writeGenesis(filename, doc)
}

func createGenesis(filename, chainID string, options json.RawMessage) error {
	if chainID == "" {
		chainID = fmt.Sprintf("fluida-%d", time.Now().Unix())
	}
	if !fluida.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	doc := GenesisDoc{"app_state": options}
	var err error
	if doc["chain_id"], err = json.Marshal(chainID); err != nil {
		return err
	}
	if doc["genesis_time"], err = json.Marshal(time.Now().UTC()); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	return writeGenesis(filename, doc)
}

func writeGenesis(filename string, doc GenesisDoc) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, out, 0600)
}
