package fluida_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestDeliverTxError(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"registered error": {
			err:      errors.Wrap(errors.ErrNotFound, "swap 7"),
			wantCode: errors.ErrNotFound.ABCICode(),
			wantLog:  "cannot deliver tx: swap 7: not found",
		},
		"internal error is redacted": {
			err:      fmt.Errorf("disk on fire"),
			wantCode: 1,
			wantLog:  "cannot deliver tx: internal error",
		},
		"internal error in debug mode": {
			err:      fmt.Errorf("disk on fire"),
			debug:    true,
			wantCode: 1,
			wantLog:  "cannot deliver tx: disk on fire",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res := fluida.DeliverOrError(nil, tc.err, tc.debug)
			assert.Equal(t, tc.wantCode, res.Code)
			if !strings.HasPrefix(res.Log, tc.wantLog) {
				t.Fatalf("unexpected log: %q", res.Log)
			}

			check := fluida.CheckOrError(nil, tc.err, tc.debug)
			assert.Equal(t, tc.wantCode, check.Code)
		})
	}
}

func TestResultsToABCI(t *testing.T) {
	dres := fluida.DeliverResult{Data: []byte{1, 2}, Log: "created", GasUsed: 5}
	d := fluida.DeliverOrError(&dres, nil, false)
	assert.Equal(t, uint32(0), d.Code)
	assert.Equal(t, []byte{1, 2}, d.Data)
	assert.Equal(t, "created", d.Log)
	assert.Equal(t, int64(5), d.GasUsed)

	cres := fluida.CheckResult{Log: "ok", GasAllocated: 7}
	c := fluida.CheckOrError(&cres, nil, false)
	assert.Equal(t, uint32(0), c.Code)
	assert.Equal(t, "ok", c.Log)
	assert.Equal(t, int64(7), c.GasWanted)
}
