package htlc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/gconf"
	"github.com/fluida-labs/fluida/x"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluida",
		Subsystem: "htlc",
		Name:      "operations_total",
		Help:      "Number of delivered swap operations by outcome.",
	}, []string{"op", "outcome"})
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluida",
		Subsystem: "htlc",
		Name:      "operation_duration_seconds",
		Help:      "Time spent delivering a swap operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

const (
	outcomeOK       = "ok"
	outcomeDropped  = "dropped"
	outcomeRejected = "rejected"
)

// Result describes the effect of a dispatched message.
type Result struct {
	Op uint32
	// SwapID is set for all operations that address a swap.
	SwapID uint64
	Swap   *Swap
	// Transfer is the outbound token transfer of a completed swap.
	Transfer *TransferInstruction
	// Dropped is set when a deposit notification was ignored because it
	// was not forwarded by the custodian.
	Dropped bool
	Log     string
}

// Data returns the machine readable result: the encoded transfer instruction
// of a completed swap, or the key of a created one.
func (r *Result) Data() ([]byte, error) {
	switch {
	case r.Transfer != nil:
		return r.Transfer.Marshal()
	case r.Op == OpDeposit && !r.Dropped:
		return SwapKey(r.SwapID), nil
	default:
		return nil, nil
	}
}

// Dispatcher decodes inbound messages and routes them to the deposit
// validator and the swap state machine.
type Dispatcher struct {
	auth    x.Authenticator
	machine Machine
}

var _ fluida.Handler = Dispatcher{}

// NewDispatcher returns a handler for all swap operations. The authenticator
// provides the sender of every message.
func NewDispatcher(auth x.Authenticator) Dispatcher {
	return Dispatcher{
		auth:    auth,
		machine: NewMachine(),
	}
}

// Check validates the message against the current state without writing.
func (d Dispatcher) Check(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.CheckResult, error) {
	msg, err := DecodeMsg(tx.GetBody())
	if err != nil {
		return nil, err
	}
	res, err := d.dispatch(ctx, db, msg, false)
	if err != nil {
		return nil, err
	}
	return &fluida.CheckResult{Log: res.Log}, nil
}

// Deliver executes the message.
func (d Dispatcher) Deliver(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.DeliverResult, error) {
	msg, err := DecodeMsg(tx.GetBody())
	if err != nil {
		operationsTotal.WithLabelValues("invalid", outcomeRejected).Inc()
		return nil, err
	}
	res, err := d.Dispatch(ctx, db, msg)
	if err != nil {
		return nil, err
	}
	data, err := res.Data()
	if err != nil {
		return nil, errors.Wrap(err, "encode result")
	}
	return &fluida.DeliverResult{Data: data, Log: res.Log}, nil
}

// Dispatch executes a decoded message. It is a closed set of operations,
// anything else is rejected with ErrUnknownOperation.
func (d Dispatcher) Dispatch(ctx fluida.Context, db fluida.KVStore, msg Msg) (*Result, error) {
	name := "unknown"
	if msg != nil {
		name = OpName(msg.Op())
	}
	timer := prometheus.NewTimer(operationDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	res, err := d.dispatch(ctx, db, msg, true)
	switch {
	case err != nil:
		operationsTotal.WithLabelValues(name, outcomeRejected).Inc()
	case res.Dropped:
		operationsTotal.WithLabelValues(name, outcomeDropped).Inc()
	default:
		operationsTotal.WithLabelValues(name, outcomeOK).Inc()
	}
	return res, err
}

func (d Dispatcher) dispatch(ctx fluida.Context, db fluida.KVStore, msg Msg, deliver bool) (*Result, error) {
	switch msg := msg.(type) {
	case *InitializeMsg:
		return d.initialize(ctx, db, msg, deliver)
	case *DepositNotificationMsg:
		return d.deposit(ctx, db, msg, deliver)
	case *CompleteSwapMsg:
		return d.complete(ctx, db, msg, deliver)
	case *RefundSwapMsg:
		return d.refund(ctx, db, msg, deliver)
	default:
		return nil, errors.Wrapf(ErrUnknownOperation, "%T", msg)
	}
}

// initialize replaces the authorized custodian. Only the configuration owner
// can do this.
func (d Dispatcher) initialize(ctx fluida.Context, db fluida.KVStore, msg *InitializeMsg, deliver bool) (*Result, error) {
	res := &Result{Op: OpInitialize, Log: "custodian set"}
	if !deliver {
		conf, err := loadConf(db)
		if err != nil {
			return nil, err
		}
		if conf.Owner == nil || !d.auth.HasAddress(ctx, conf.Owner) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
		}
		return res, nil
	}
	patch := &Configuration{Custodian: msg.Custodian}
	if err := gconf.Update(ctx, db, d.auth, ConfigPkg, &Configuration{}, patch); err != nil {
		return nil, err
	}
	fluida.GetLogger(ctx).Info("custodian set", "op", "initialize", "custodian", msg.Custodian.String())
	return res, nil
}

// deposit creates a swap out of a deposit notification. Notifications from
// any other account than the custodian are dropped: the message succeeds
// without creating a swap.
func (d Dispatcher) deposit(ctx fluida.Context, db fluida.KVStore, msg *DepositNotificationMsg, deliver bool) (*Result, error) {
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	sender := x.MainSigner(ctx, d.auth).Address()
	dep, err := ValidateDeposit(conf, sender, msg)
	if err != nil {
		if ErrUnauthorizedSender.Is(err) {
			fluida.GetLogger(ctx).Info("deposit dropped", "op", "deposit", "sender", sender.String())
			return &Result{Op: OpDeposit, Dropped: true, Log: "dropped: " + err.Error()}, nil
		}
		return nil, err
	}
	if !deliver {
		return &Result{Op: OpDeposit, Log: "deposit accepted"}, nil
	}
	id, swap, err := d.machine.Create(db, dep)
	if err != nil {
		return nil, err
	}
	fluida.GetLogger(ctx).Info("swap created", "op", "deposit", "swap", id, "amount", swap.Amount.ToBig().String())
	return &Result{Op: OpDeposit, SwapID: id, Swap: swap, Log: "swap created"}, nil
}

func (d Dispatcher) complete(ctx fluida.Context, db fluida.KVStore, msg *CompleteSwapMsg, deliver bool) (*Result, error) {
	if !deliver {
		id, swap, err := d.machine.CheckComplete(db, msg.SwapID, msg.Preimage)
		if err != nil {
			return nil, err
		}
		return &Result{Op: OpComplete, SwapID: id, Swap: swap}, nil
	}
	swap, transfer, err := d.machine.Complete(db, msg.SwapID, msg.Preimage)
	if err != nil {
		return nil, err
	}
	fluida.GetLogger(ctx).Info("swap claimed", "op", "complete", "swap", transfer.QueryID)
	return &Result{
		Op:       OpComplete,
		SwapID:   transfer.QueryID,
		Swap:     swap,
		Transfer: transfer,
		Log:      "swap claimed",
	}, nil
}

func (d Dispatcher) refund(ctx fluida.Context, db fluida.KVStore, msg *RefundSwapMsg, deliver bool) (*Result, error) {
	now, ok := fluida.BlockTime(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "block time not set")
	}
	if !deliver {
		id, swap, err := d.machine.CheckRefund(db, fluida.AsUnixTime(now), msg.SwapID)
		if err != nil {
			return nil, err
		}
		return &Result{Op: OpRefund, SwapID: id, Swap: swap}, nil
	}
	swap, transfer, err := d.machine.Refund(db, fluida.AsUnixTime(now), msg.SwapID)
	if err != nil {
		return nil, err
	}
	fluida.GetLogger(ctx).Info("swap refunded", "op", "refund", "swap", transfer.QueryID)
	return &Result{
		Op:       OpRefund,
		SwapID:   transfer.QueryID,
		Swap:     swap,
		Transfer: transfer,
		Log:      "swap refunded",
	}, nil
}
