package weavetest

import "github.com/fluida-labs/fluida"

// Handler is a mock implementation of the fluida.Handler interface.
//
// It returns the configured result or error and counts every call. When
// the Write attributes are set, the value is stored before returning so
// that tests can verify whether the changes were persisted.
type Handler struct {
	checkCall   int
	CheckResult fluida.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult fluida.DeliverResult
	DeliverErr    error

	WriteKey   []byte
	WriteValue []byte
}

var _ fluida.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.CheckResult, error) {
	h.checkCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.DeliverResult, error) {
	h.deliverCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db fluida.KVStore) error {
	if h.WriteKey == nil {
		return nil
	}
	return db.Set(h.WriteKey, h.WriteValue)
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
