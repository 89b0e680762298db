package instance

import (
	"fmt"
	"strings"

	"github.com/nordvik-automation/modbus-core/internal/decode"
	"github.com/nordvik-automation/modbus-core/internal/plan"
	"github.com/nordvik-automation/modbus-core/internal/resolve"
	"github.com/nordvik-automation/modbus-core/internal/template"
)

// PrefixPlaceholder is the token in calculated and binary sensor
// expressions replaced with the device's configured entity-id prefix
// before the expression reaches the host's evaluator.
const PrefixPlaceholder = "{prefix}"

// ExprEvaluator is the host platform's templated-expression engine,
// consumed as an opaque function: expression plus name → value mapping
// in, value or failure out. Calculated and binary descriptors are never
// evaluated by this core.
type ExprEvaluator func(expr string, vars map[string]any) (any, error)

// Options configures instance construction.
type Options struct {
	// Prefix overrides the template's default entity-id prefix.
	Prefix string

	// SlaveID overrides the template's default slave id.
	SlaveID uint8

	// Plan tunes the register planner; zero values take the planner
	// defaults.
	Plan plan.Options

	// Logger receives non-fatal resolution notices.
	Logger resolve.Logger
}

// Instance is one fully configured device: filtered descriptors, read
// plan, and decode entry point. Instances are immutable; see the
// package comment for the reload contract.
type Instance struct {
	tpl      *template.Template
	resolved *resolve.Resolved
	reads    []plan.Read
	prefix   string
	slave    uint8
}

// New resolves the template against the user's selections and plans the
// register reads. Configuration defects (missing model, invalid option,
// unknown placeholder, over-wide descriptor) fail here, before any I/O.
func New(tpl *template.Template, selections map[string]string, opts Options) (*Instance, error) {
	r := resolve.New()
	if opts.Logger != nil {
		r.SetLogger(opts.Logger)
	}
	resolved, err := r.Resolve(tpl, selections)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", tpl.Name, err)
	}

	slave := opts.SlaveID
	if slave == 0 {
		slave = tpl.DefaultSlaveID
	}
	planOpts := opts.Plan
	planOpts.DefaultSlave = slave

	reads, err := plan.Plan(resolved.Registered(), planOpts)
	if err != nil {
		return nil, fmt.Errorf("planning %q: %w", tpl.Name, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = tpl.DefaultPrefix
	}

	inst := &Instance{
		tpl:      tpl,
		resolved: resolved,
		reads:    reads,
		prefix:   prefix,
		slave:    slave,
	}
	inst.substitutePrefix()
	return inst, nil
}

// Reload derives a fresh Instance for runtime template updates without
// restart. It is idempotent: identical inputs produce an Instance with
// identical descriptor lists and plan. The receiver is left untouched;
// the caller swaps the active instance between poll cycles.
func (i *Instance) Reload(selections map[string]string, opts Options) (*Instance, error) {
	return New(i.tpl, selections, opts)
}

// substitutePrefix rewrites the {prefix} placeholder in calculated and
// binary sensor expressions. Working copies only: resolve already
// detached any descriptor it modified, but expressions live on shared
// descriptors, so clone before touching.
func (i *Instance) substitutePrefix() {
	for _, list := range []*[]*template.Descriptor{&i.resolved.BinarySensors, &i.resolved.Calculated} {
		for idx, d := range *list {
			if !strings.Contains(d.Expression, PrefixPlaceholder) {
				continue
			}
			cpy := d.Clone()
			cpy.Expression = strings.ReplaceAll(cpy.Expression, PrefixPlaceholder, i.prefix)
			(*list)[idx] = cpy
		}
	}
}

// Template returns the canonical template this instance derives from.
func (i *Instance) Template() *template.Template { return i.tpl }

// Prefix returns the entity-id prefix in effect.
func (i *Instance) Prefix() string { return i.prefix }

// SlaveID returns the default slave id in effect.
func (i *Instance) SlaveID() uint8 { return i.slave }

// Context returns the resolved configuration context.
func (i *Instance) Context() *resolve.Resolved { return i.resolved }

// Reads returns the planned register reads for the transport. The slice
// must be treated as read-only.
func (i *Instance) Reads() []plan.Read { return i.reads }

// Descriptors returns the filtered register-backed descriptors
// (sensors and controls), override-applied. Read-only.
func (i *Instance) Descriptors() []*template.Descriptor {
	return i.resolved.Registered()
}

// Expressions returns the filtered binary and calculated descriptors,
// prefix-substituted, for the host's expression evaluator. Read-only.
func (i *Instance) Expressions() []*template.Descriptor {
	out := make([]*template.Descriptor, 0, len(i.resolved.BinarySensors)+len(i.resolved.Calculated))
	out = append(out, i.resolved.BinarySensors...)
	out = append(out, i.resolved.Calculated...)
	return out
}

// DecodeAndMap decodes one descriptor's words from a span buffer and
// applies the value mapping chain. Pure and safe for concurrent use.
func (i *Instance) DecodeAndMap(d *template.Descriptor, words []uint16) (string, float64, error) {
	return decode.DecodeAndMap(d, words)
}

// Slice extracts a descriptor's words from the buffer of the span that
// covers it. The second return is false when the read does not cover
// the descriptor.
func Slice(r plan.Read, buf []uint16, d *template.Descriptor) ([]uint16, bool) {
	n := d.Registers()
	if !r.Contains(d.Address, n) || len(buf) < int(r.Count) {
		return nil, false
	}
	off := d.Address - r.Start
	return buf[off : off+n], true
}
