package emit

import "context"

// Processor receives events sequentially (FIFO, per processor) and is
// notified once at the end of a run via Shutdown. A processor must not
// affect execution: the Dispatcher recovers from a panicking processor and
// swallows its errors.
type Processor interface {
	OnEvent(Event)
	Shutdown(ctx context.Context) error
}

// Dispatcher holds an ordered list of processors and delivers every event to
// each of them in order.
type Dispatcher struct {
	processors []Processor
	onPanic    func(recovered any)
}

// NewDispatcher builds a Dispatcher over the given processors, delivered in
// the order supplied.
func NewDispatcher(processors ...Processor) *Dispatcher {
	return &Dispatcher{processors: append([]Processor{}, processors...)}
}

// OnPanic installs a hook invoked whenever a processor panics while handling
// an event; defaults to discarding the recovery value.
func (d *Dispatcher) OnPanic(f func(recovered any)) { d.onPanic = f }

// Emit delivers ev to every processor in order, isolating each from the
// others' panics or errors.
func (d *Dispatcher) Emit(ev Event) {
	for _, p := range d.processors {
		d.deliver(p, ev)
	}
}

func (d *Dispatcher) deliver(p Processor, ev Event) {
	defer func() {
		if r := recover(); r != nil && d.onPanic != nil {
			d.onPanic(r)
		}
	}()
	p.OnEvent(ev)
}

// Shutdown calls Shutdown on every processor, collecting but not stopping
// on individual errors.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, p := range d.processors {
		if err := p.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
