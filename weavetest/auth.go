package weavetest

import (
	"context"
	"fmt"

	"github.com/fluida-labs/fluida"
)

// Auth authenticates a fixed set of conditions, no matter the context.
// Signers are reported first, followed by Signer when set.
type Auth struct {
	// Signer is the main signer, usually the custodian or the owner.
	Signer fluida.Condition

	Signers []fluida.Condition
}

func (a *Auth) GetConditions(fluida.Context) []fluida.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	conds := make([]fluida.Condition, 0, len(a.Signers)+1)
	conds = append(conds, a.Signers...)
	return append(conds, a.Signer)
}

func (a *Auth) HasAddress(ctx fluida.Context, addr fluida.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth authenticates the conditions stored in the context under Key.
// Tests use it to switch the signer of each message.
type CtxAuth struct {
	Key string
}

func (a *CtxAuth) SetConditions(ctx fluida.Context, permissions ...fluida.Condition) fluida.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

func (a *CtxAuth) GetConditions(ctx fluida.Context) []fluida.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]fluida.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []fluida.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx fluida.Context, addr fluida.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
