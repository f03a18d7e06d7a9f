package app

import (
	"encoding/json"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/htlc"
)

// GenesisState is the app_state section of the genesis file.
type GenesisState struct {
	Conf struct {
		HTLC htlc.Configuration `json:"htlc"`
	} `json:"conf"`
	// HTLC is an optional state exported from another chain.
	HTLC *htlc.State `json:"htlc,omitempty"`
}

// NewGenesisState returns the initial state of a chain with a configured
// owner and custodian. The custodian can be left empty and set later by the
// owner.
func NewGenesisState(owner, custodian fluida.Address) *GenesisState {
	var g GenesisState
	g.Conf.HTLC = htlc.Configuration{Owner: owner, Custodian: custodian}
	return &g
}

// AppState returns the JSON representation to be placed under "app_state".
func (g *GenesisState) AppState() (json.RawMessage, error) {
	if err := g.Conf.HTLC.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if g.HTLC != nil {
		if err := g.HTLC.Validate(); err != nil {
			return nil, errors.Wrap(err, "state")
		}
	}
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Initializers returns the genesis initializers of all extensions.
func Initializers() fluida.Initializer {
	return fluida.ChainInitializers{
		&htlc.Initializer{},
	}
}
