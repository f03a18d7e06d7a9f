package weavetest

import (
	"testing"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

func TestHandlerResults(t *testing.T) {
	h := Handler{
		CheckResult:   fluida.CheckResult{Log: "checked"},
		DeliverResult: fluida.DeliverResult{Data: []byte("data")},
	}

	cres, err := h.Check(nil, nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, "checked", cres.Log)

	dres, err := h.Deliver(nil, nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, []byte("data"), dres.Data)

	assert.Equal(t, 1, h.CheckCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestHandlerWritesBeforeFailing(t *testing.T) {
	db := store.MemStore()
	h := Handler{
		DeliverErr: errors.ErrState,
		WriteKey:   []byte("key"),
		WriteValue: []byte("value"),
	}

	_, err := h.Deliver(nil, db, nil)
	assert.IsErr(t, errors.ErrState, err)

	got, err := db.Get([]byte("key"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestDecorator(t *testing.T) {
	var (
		d Decorator
		h Handler
	)
	handler := Decorate(&h, &d)

	_, err := handler.Check(nil, nil, nil)
	assert.Nil(t, err)
	_, err = handler.Deliver(nil, nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, 1, d.CheckCallCount())
	assert.Equal(t, 1, d.DeliverCallCount())
	assert.Equal(t, 2, h.CallCount())

	// When using an error returning decorator, handler is never called.
	d.CheckErr = errors.ErrUnauthorized
	d.DeliverErr = errors.ErrNotFound
	_, err = handler.Check(nil, nil, nil)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = handler.Deliver(nil, nil, nil)
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, 2, h.CallCount())
}
