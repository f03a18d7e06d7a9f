package gconf

import (
	"encoding/json"
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestSaveLoad(t *testing.T) {
	db := store.MemStore()

	var c myconfig
	if err := Load(db, "mypkg", &c); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found error, got %+v", err)
	}

	owner := weavetest.NewCondition().Address()
	assert.Nil(t, Save(db, "mypkg", &myconfig{Owner: owner, Num: 7, Str: "seven"}))
	assert.Nil(t, Load(db, "mypkg", &c))
	assert.Equal(t, myconfig{Owner: owner, Num: 7, Str: "seven"}, c)

	raw, err := db.Get([]byte("_c:mypkg"))
	assert.Nil(t, err)
	if raw == nil {
		t.Fatal("configuration must be stored under the package key")
	}
}

func TestSaveInvalid(t *testing.T) {
	db := store.MemStore()
	err := Save(db, "mypkg", &myconfig{Num: -1})
	assert.IsErr(t, errors.ErrState, err)

	has, err := db.Has(Key("mypkg"))
	assert.Nil(t, err)
	if has {
		t.Fatal("invalid configuration must not be stored")
	}
}

func TestInitConfig(t *testing.T) {
	owner := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Genesis  string
		WantErr  *errors.Error
		WantConf myconfig
	}{
		"success": {
			Genesis:  `{"conf": {"mypkg": {"owner": "` + owner.String() + `", "num": 3, "str": "x"}}}`,
			WantConf: myconfig{Owner: owner, Num: 3, Str: "x"},
		},
		"missing package configuration": {
			Genesis: `{"conf": {"other": {}}}`,
			WantErr: errors.ErrNotFound,
		},
		"invalid configuration": {
			Genesis: `{"conf": {"mypkg": {"num": -4}}}`,
			WantErr: errors.ErrState,
		},
		"malformed configuration": {
			Genesis: `{"conf": {"mypkg": {"owner": "zzz"}}}`,
			WantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts fluida.Options
			if err := json.Unmarshal([]byte(tc.Genesis), &opts); err != nil {
				t.Fatalf("cannot unmarshal genesis: %s", err)
			}
			db := store.MemStore()
			var c myconfig
			err := InitConfig(db, opts, "mypkg", &c)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}
			var loaded myconfig
			assert.Nil(t, Load(db, "mypkg", &loaded))
			assert.Equal(t, tc.WantConf, loaded)
		})
	}
}

func TestUpdate(t *testing.T) {
	owner := weavetest.NewCondition()

	cases := map[string]struct {
		Init       *myconfig
		Patch      *myconfig
		Signers    []fluida.Condition
		WantErr    *errors.Error
		WantConfig *myconfig
	}{
		"success": {
			Init:       &myconfig{Owner: owner.Address(), Num: 5125, Str: "foobar"},
			Patch:      &myconfig{Num: 333, Str: "boing!"},
			Signers:    []fluida.Condition{owner},
			WantConfig: &myconfig{Owner: owner.Address(), Num: 333, Str: "boing!"},
		},
		"zero values are not updating the configuration": {
			Init:       &myconfig{Owner: owner.Address(), Num: 5125, Str: "foobar"},
			Patch:      &myconfig{Str: "only str"},
			Signers:    []fluida.Condition{owner},
			WantConfig: &myconfig{Owner: owner.Address(), Num: 5125, Str: "only str"},
		},
		"must be signed by the configuration owner": {
			Init:       &myconfig{Owner: owner.Address(), Num: 5125, Str: "foobar"},
			Patch:      &myconfig{Num: 1},
			Signers:    []fluida.Condition{weavetest.NewCondition()},
			WantErr:    errors.ErrUnauthorized,
			WantConfig: &myconfig{Owner: owner.Address(), Num: 5125, Str: "foobar"},
		},
		"configuration without owner cannot be updated": {
			Init:    &myconfig{Num: 5125},
			Patch:   &myconfig{Num: 1},
			Signers: []fluida.Condition{owner},
			WantErr: errors.ErrUnauthorized,
		},
		"missing configuration is never created": {
			Patch:   &myconfig{Owner: owner.Address()},
			Signers: []fluida.Condition{owner},
			WantErr: errors.ErrUnauthorized,
		},
		"invalid patch result is rejected": {
			Init:       &myconfig{Owner: owner.Address(), Num: 5125},
			Patch:      &myconfig{Num: -2},
			Signers:    []fluida.Condition{owner},
			WantErr:    errors.ErrState,
			WantConfig: &myconfig{Owner: owner.Address(), Num: 5125},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if tc.Init != nil {
				assert.Nil(t, Save(db, "mypkg", tc.Init))
			}
			auth := &weavetest.Auth{Signers: tc.Signers}

			var c myconfig
			err := Update(nil, db, auth, "mypkg", &c, tc.Patch)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantConfig != nil {
				var got myconfig
				assert.Nil(t, Load(db, "mypkg", &got))
				assert.Equal(t, *tc.WantConfig, got)
			}
		})
	}
}
