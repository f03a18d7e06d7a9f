package weavetest

import "github.com/fluida-labs/fluida"

// Decorator counts the transactions passing through it. A set CheckErr or
// DeliverErr is returned instead of calling the next handler, the way the
// signature decorator rejects an unsigned swap message.
type Decorator struct {
	CheckErr   error
	DeliverErr error

	checkCall   int
	deliverCall int
}

var _ fluida.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx, next fluida.Checker) (*fluida.CheckResult, error) {
	d.checkCall++
	if err := d.CheckErr; err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx, next fluida.Deliverer) (*fluida.DeliverResult, error) {
	d.deliverCall++
	if err := d.DeliverErr; err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int   { return d.checkCall }
func (d *Decorator) DeliverCallCount() int { return d.deliverCall }

// Decorate puts d in front of h.
func Decorate(h fluida.Handler, d fluida.Decorator) fluida.Handler {
	return decorated{next: h, decorator: d}
}

type decorated struct {
	next      fluida.Handler
	decorator fluida.Decorator
}

func (d decorated) Check(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.CheckResult, error) {
	return d.decorator.Check(ctx, db, tx, d.next)
}

func (d decorated) Deliver(ctx fluida.Context, db fluida.KVStore, tx fluida.Tx) (*fluida.DeliverResult, error) {
	return d.decorator.Deliver(ctx, db, tx, d.next)
}
