package x

import (
	"github.com/fluida-labs/fluida"
)

// Authenticator tells a handler which conditions signed the transaction
// being processed. The htlc handler only needs HasAddress to check that the
// source, the recipient or the arbiter of a swap approved a message.
type Authenticator interface {
	// GetConditions lists the signers, main signer first.
	GetConditions(fluida.Context) []fluida.Condition
	HasAddress(fluida.Context, fluida.Address) bool
}

// MultiAuth merges the signers known to several authenticators.
type MultiAuth []Authenticator

var _ Authenticator = MultiAuth{}

// ChainAuth combines the authenticators in order, so the main signer comes
// from the first one that knows any signer.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth(impls)
}

func (m MultiAuth) GetConditions(ctx fluida.Context) []fluida.Condition {
	var all []fluida.Condition
	for _, auth := range m {
		all = append(all, auth.GetConditions(ctx)...)
	}
	return all
}

func (m MultiAuth) HasAddress(ctx fluida.Context, addr fluida.Address) bool {
	for _, auth := range m {
		if auth.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses returns the addresses of all conditions that signed.
func GetAddresses(ctx fluida.Context, auth Authenticator) []fluida.Address {
	conds := auth.GetConditions(ctx)
	addrs := make([]fluida.Address, 0, len(conds))
	for _, c := range conds {
		addrs = append(addrs, c.Address())
	}
	return addrs
}

// MainSigner returns the first signer of the transaction, or nil. Deposit
// notifications are only accepted when it is the custodian.
func MainSigner(ctx fluida.Context, auth Authenticator) fluida.Condition {
	if conds := auth.GetConditions(ctx); len(conds) > 0 {
		return conds[0]
	}
	return nil
}
