package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/x/sigs"
)

func TestResultSet(t *testing.T) {
	models := []fluida.Model{
		fluida.Pair([]byte("one"), []byte("first")),
		fluida.Pair([]byte("two"), []byte{}),
		fluida.Pair([]byte("three"), []byte("third")),
	}

	rawKeys, err := ResultsFromKeys(models).Marshal()
	require.NoError(t, err)
	rawValues, err := ResultsFromValues(models).Marshal()
	require.NoError(t, err)

	var keys, values ResultSet
	require.NoError(t, keys.Unmarshal(rawKeys))
	require.NoError(t, values.Unmarshal(rawValues))
	got, err := JoinResults(&keys, &values)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("two"), got[1].Key)
	assert.Empty(t, got[1].Value)
	assert.Equal(t, []byte("third"), got[2].Value)

	_, err = JoinResults(&keys, &ResultSet{})
	assert.Error(t, err)
}

func TestUnmarshalOneResult(t *testing.T) {
	user := sigs.UserData{Pubkey: make([]byte, 32), Sequence: 4}
	raw, err := user.Marshal()
	require.NoError(t, err)
	set, err := (&ResultSet{Results: [][]byte{raw}}).Marshal()
	require.NoError(t, err)

	var got sigs.UserData
	require.NoError(t, UnmarshalOneResult(set, &got))
	assert.Equal(t, user, got)

	// No result leaves the destination untouched.
	empty, err := (&ResultSet{}).Marshal()
	require.NoError(t, err)
	var untouched sigs.UserData
	require.NoError(t, UnmarshalOneResult(empty, &untouched))
	assert.Nil(t, untouched.Pubkey)
}
