package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nordvik-automation/modbus-core/internal/decode"
	"github.com/nordvik-automation/modbus-core/internal/instance"
	"github.com/nordvik-automation/modbus-core/internal/plan"
	"github.com/nordvik-automation/modbus-core/internal/template"
)

// Conn executes one planned read. Satisfied by transport.Conn.
type Conn interface {
	Execute(r plan.Read) ([]uint16, error)
}

// Sink consumes decoded entity state. Satisfied by the MQTT state sink;
// tests provide their own.
type Sink interface {
	// Publish delivers one decoded reading.
	Publish(entityID string, display string, numeric float64) error

	// Unavailable marks an entity's reading unavailable for this cycle.
	Unavailable(entityID string) error
}

// Logger is the minimal logging interface the poller needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Poller runs the poll cycle for one device instance.
type Poller struct {
	inst     atomic.Pointer[instance.Instance]
	conn     Conn
	sink     Sink
	interval time.Duration
	logger   Logger
}

// New creates a poller for the given instance.
func New(inst *instance.Instance, conn Conn, sink Sink, interval time.Duration) (*Poller, error) {
	if inst == nil {
		return nil, errors.New("poller: nil instance")
	}
	if conn == nil || sink == nil {
		return nil, errors.New("poller: nil connection or sink")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poller: invalid interval %v", interval)
	}
	p := &Poller{
		conn:     conn,
		sink:     sink,
		interval: interval,
		logger:   noopLogger{},
	}
	p.inst.Store(inst)
	return p, nil
}

// SetLogger sets the logger for per-cycle diagnostics.
func (p *Poller) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// Swap atomically replaces the active instance. The next cycle uses the
// new instance; a cycle already running completes against the old one.
func (p *Poller) Swap(inst *instance.Instance) {
	if inst != nil {
		p.inst.Store(inst)
	}
}

// Instance returns the currently active instance.
func (p *Poller) Instance() *instance.Instance {
	return p.inst.Load()
}

// Run polls on the configured interval until the context is cancelled.
// The first cycle runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll executes one full cycle against the active instance.
func (p *Poller) Poll() {
	inst := p.inst.Load()
	descs := inst.Descriptors()

	for _, read := range inst.Reads() {
		buf, err := p.conn.Execute(read)
		if err != nil {
			p.logger.Warn("span read failed", "table", read.Table, "start", read.Start, "count", read.Count, "error", err)
			p.markSpanUnavailable(inst, read, descs)
			continue
		}

		for _, d := range descs {
			if d.SlaveID(inst.SlaveID()) != read.Slave || d.Table != read.Table {
				continue
			}
			words, ok := instance.Slice(read, buf, d)
			if !ok {
				continue
			}
			entity := entityID(inst.Prefix(), d.UniqueID)

			display, numeric, err := inst.DecodeAndMap(d, words)
			if err != nil {
				if !errors.Is(err, decode.ErrUnavailable) {
					p.logger.Debug("decode failed", "unique_id", d.UniqueID, "error", err)
				}
				p.sinkUnavailable(entity)
				continue
			}
			if err := p.sink.Publish(entity, display, numeric); err != nil {
				p.logger.Warn("publish failed", "entity", entity, "error", err)
			}
		}
	}
}

// markSpanUnavailable flags every entity whose descriptor the failed
// span covers. Entities in other spans are untouched.
func (p *Poller) markSpanUnavailable(inst *instance.Instance, read plan.Read, descs []*template.Descriptor) {
	for _, d := range descs {
		if d.SlaveID(inst.SlaveID()) != read.Slave || d.Table != read.Table {
			continue
		}
		if !read.Contains(d.Address, d.Registers()) {
			continue
		}
		p.sinkUnavailable(entityID(inst.Prefix(), d.UniqueID))
	}
}

func (p *Poller) sinkUnavailable(entity string) {
	if err := p.sink.Unavailable(entity); err != nil {
		p.logger.Warn("unavailable publish failed", "entity", entity, "error", err)
	}
}

func entityID(prefix, uniqueID string) string {
	if prefix == "" {
		return uniqueID
	}
	return prefix + "_" + uniqueID
}
