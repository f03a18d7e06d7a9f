package main

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/urfave/cli"
	"golang.org/x/crypto/ed25519"

	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/sigs"
)

// keygen writes a new ed25519 private key. The file holds the raw 64 byte
// private key. An existing file is never overwritten.
func (e *env) keygen(c *cli.Context) error {
	path := c.String("key")
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "private key file %q already exists, delete this file and try again", path)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "check private key file")
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return errors.Wrap(err, "generate key")
	}
	if err := ioutil.WriteFile(path, priv, 0400); err != nil {
		return errors.Wrap(err, "write private key file")
	}
	_, err = fmt.Fprintln(e.out, sigs.PubKeyAddress(priv.Public().(ed25519.PublicKey)))
	return err
}

func (e *env) keyaddr(c *cli.Context) error {
	key, err := loadKey(c.String("key"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, sigs.PubKeyAddress(key.Public().(ed25519.PublicKey)))
	return err
}

func loadKey(path string) (ed25519.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read private key file")
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "private key file %q must contain %d bytes", path, ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(raw), nil
}
