package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/x/sigs"
)

func TestTxEnvelope(t *testing.T) {
	key := weavetest.NewKey()
	tx := NewTx([]byte{0xAB, 0xCD, 0xEF, 0x12, 1, 2, 3})

	_, err := tx.Marshal()
	assert.True(t, errors.ErrUnauthorized.Is(err))

	require.NoError(t, tx.Sign(key, testChainID, 7))
	raw, err := tx.Marshal()
	require.NoError(t, err)
	require.Len(t, raw, headerLength+len(tx.Body))
	assert.Equal(t, tx.Signature.Pubkey, raw[:32])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 7}, raw[32:40])
	assert.Equal(t, tx.Body, raw[headerLength:])

	decoded, err := TxDecoder(raw)
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)

	// The signature covers the body, chain and sequence.
	db := store.MemStore()
	_, err = sigs.VerifySignature(db, tx.Signature, tx.Body, testChainID)
	assert.Error(t, err, "sequence 7 is not the first one")

	require.NoError(t, tx.Sign(key, testChainID, 0))
	signer, err := sigs.VerifySignature(db, tx.Signature, tx.Body, testChainID)
	require.NoError(t, err)
	assert.Equal(t, weavetest.KeyCondition(key), signer)

	_, err = sigs.VerifySignature(store.MemStore(), tx.Signature, []byte("other body"), testChainID)
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestTxDecoderErrors(t *testing.T) {
	cases := map[string]struct {
		Raw     []byte
		WantErr *errors.Error
	}{
		"empty": {
			Raw:     nil,
			WantErr: errors.ErrInput,
		},
		"header only": {
			Raw: make([]byte, headerLength),
		},
		"truncated header": {
			Raw:     make([]byte, headerLength-1),
			WantErr: errors.ErrInput,
		},
		"sequence overflow": {
			Raw:     append(append(make([]byte, 32), 0x80, 0, 0, 0, 0, 0, 0, 0), make([]byte, 64)...),
			WantErr: sigs.ErrInvalidSequence,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := TxDecoder(tc.Raw)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
