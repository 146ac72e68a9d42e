package audit

import "go.uber.org/zap"

type Event struct {
	ProviderID    uint
	StaffMemberID *uint
	Action        string
	Entity        string
	EntityID      *uint
	Metadata      any
}

// Sink persists audit entries; the gorm-backed Logger is the
// production sink.
type Sink interface {
	Log(providerID uint, staffMemberID *uint, action, entity string, entityID *uint, metadata any) error
}

type Dispatcher struct {
	sink  Sink
	log   *zap.Logger
	queue chan Event
}

func NewDispatcher(sink Sink, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sink:  sink,
		log:   log,
		queue: make(chan Event, 100),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	for ev := range d.queue {
		if err := d.sink.Log(
			ev.ProviderID,
			ev.StaffMemberID,
			ev.Action,
			ev.Entity,
			ev.EntityID,
			ev.Metadata,
		); err != nil {
			d.log.Warn("audit error", zap.String("action", ev.Action), zap.Error(err))
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		// full queue drops audit rather than blocking a request
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}
