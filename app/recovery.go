package app

import (
	"time"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ fluida.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (Recovery) Check(ctx fluida.Context, store fluida.KVStore, tx fluida.Tx, next fluida.Checker) (_ *fluida.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (Recovery) Deliver(ctx fluida.Context, store fluida.KVStore, tx fluida.Tx, next fluida.Deliverer) (_ *fluida.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}

// Logging is a decorator to log every processed transaction with its
// outcome and duration.
type Logging struct{}

var _ fluida.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs the outcome of the check phase at debug level.
func (Logging) Check(ctx fluida.Context, store fluida.KVStore, tx fluida.Tx, next fluida.Checker) (*fluida.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	logger := fluida.GetLogger(ctx).With("duration", time.Since(start))
	if err != nil {
		logger.Debug("check failed", "err", err)
	} else {
		logger.Debug("check passed", "log", res.Log)
	}
	return res, err
}

// Deliver logs the outcome of every delivered transaction.
func (Logging) Deliver(ctx fluida.Context, store fluida.KVStore, tx fluida.Tx, next fluida.Deliverer) (*fluida.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	logger := fluida.GetLogger(ctx).With("duration", time.Since(start))
	if err != nil {
		logger.Info("delivery failed", "err", err)
	} else {
		logger.Info("delivered", "log", res.Log)
	}
	return res, err
}
