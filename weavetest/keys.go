package weavetest

import (
	"crypto/rand"
	"testing"

	"github.com/fluida-labs/fluida"
	"golang.org/x/crypto/ed25519"
)

// NewKey returns a fresh ed25519 private key.
func NewKey() ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return priv
}

// KeyCondition returns the signature condition of the given key, the same
// way the signature verification decorator reports it.
func KeyCondition(key ed25519.PrivateKey) fluida.Condition {
	return fluida.NewCondition("sigs", "ed25519", key.Public().(ed25519.PublicKey))
}

// NewCondition returns a condition of a random ed25519 key.
func NewCondition() fluida.Condition {
	return KeyCondition(NewKey())
}

// RandomAddr returns a valid address that is not guaranteed to be unique.
func RandomAddr(t testing.TB) fluida.Address {
	t.Helper()
	return NewCondition().Address()
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation.
func ParseAddress(t testing.TB, encodedAddress string) fluida.Address {
	t.Helper()

	addr, err := fluida.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
