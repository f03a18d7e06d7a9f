package weavetest

import (
	"context"
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestAuth(t *testing.T) {
	custodian := NewCondition()
	owner := NewCondition()
	stranger := NewCondition()

	cases := map[string]struct {
		auth     Auth
		want     []fluida.Condition
		wantNot  fluida.Condition
		wantHave []fluida.Condition
	}{
		"no signers": {
			auth:    Auth{},
			want:    nil,
			wantNot: stranger,
		},
		"single signer": {
			auth:     Auth{Signer: custodian},
			want:     []fluida.Condition{custodian},
			wantNot:  stranger,
			wantHave: []fluida.Condition{custodian},
		},
		"signers only": {
			auth:     Auth{Signers: []fluida.Condition{custodian, owner}},
			want:     []fluida.Condition{custodian, owner},
			wantNot:  stranger,
			wantHave: []fluida.Condition{custodian, owner},
		},
		"signers come before the signer": {
			auth:     Auth{Signer: owner, Signers: []fluida.Condition{custodian}},
			want:     []fluida.Condition{custodian, owner},
			wantNot:  stranger,
			wantHave: []fluida.Condition{owner, custodian},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.auth.GetConditions(nil))
			for _, c := range tc.wantHave {
				if !tc.auth.HasAddress(nil, c.Address()) {
					t.Errorf("%s must be authenticated", c)
				}
			}
			if tc.auth.HasAddress(nil, tc.wantNot.Address()) {
				t.Fatalf("%s must not be authenticated", tc.wantNot)
			}
		})
	}
}

func TestAuthDoesNotShareSigners(t *testing.T) {
	signers := make([]fluida.Condition, 1, 4)
	signers[0] = NewCondition()
	a := Auth{Signers: signers}

	a.Signer = NewCondition()
	first := a.GetConditions(nil)
	a.Signer = NewCondition()
	second := a.GetConditions(nil)

	if first[1].Equals(second[1]) {
		t.Fatal("conditions returned earlier must not change")
	}
}

func TestCtxAuth(t *testing.T) {
	custodian := NewCondition()
	owner := NewCondition()

	a := CtxAuth{Key: "htlc"}
	other := CtxAuth{Key: "sigs"}

	ctx := context.Background()
	assert.Equal(t, []fluida.Condition(nil), a.GetConditions(ctx))
	if a.HasAddress(ctx, custodian.Address()) {
		t.Fatal("empty context must not authenticate")
	}

	ctx = a.SetConditions(ctx, custodian, owner)
	assert.Equal(t, []fluida.Condition{custodian, owner}, a.GetConditions(ctx))
	if !a.HasAddress(ctx, owner.Address()) {
		t.Fatal("owner must be authenticated")
	}
	if a.HasAddress(ctx, NewCondition().Address()) {
		t.Fatal("random condition must not be authenticated")
	}

	// Conditions are bound to the key they were set with.
	assert.Equal(t, []fluida.Condition(nil), other.GetConditions(ctx))
}

func TestCtxAuthWrongValue(t *testing.T) {
	a := CtxAuth{Key: "htlc"}
	ctx := context.WithValue(context.Background(), "htlc", "not conditions")
	assert.Panics(t, func() { a.GetConditions(ctx) })
}
