package resolve

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nordvik-automation/modbus-core/internal/condition"
	"github.com/nordvik-automation/modbus-core/internal/template"
)

// SelectedModelKey is the distinguished selection naming the device
// model when the template defines valid_models.
const SelectedModelKey = "selected_model"

// batteryConfigKey is exempt from option-list validation: its value
// space is open (none, other, or an arbitrary template name).
const batteryConfigKey = "battery_config"

// Logger is the minimal logging interface the resolver needs.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Resolved is the effective configuration of one device instance: the
// flattened context plus the filtered, override-applied descriptor
// collections. It is immutable once returned; reconfiguration produces
// a new Resolved rather than mutating this one.
type Resolved struct {
	// Context is the flat name → scalar mapping conditions and
	// placeholders were evaluated against.
	Context condition.Context

	// Model is the selected model name, empty when the template has no
	// valid_models table.
	Model string

	Sensors       []*template.Descriptor
	Controls      []*template.Descriptor
	BinarySensors []*template.Descriptor
	Calculated    []*template.Descriptor
}

// Registered returns the filtered descriptors that read registers.
func (r *Resolved) Registered() []*template.Descriptor {
	out := make([]*template.Descriptor, 0, len(r.Sensors)+len(r.Controls))
	out = append(out, r.Sensors...)
	out = append(out, r.Controls...)
	return out
}

// Resolver derives per-instance configuration from templates. The zero
// value is usable; SetLogger attaches a logger for excluded-descriptor
// diagnostics.
type Resolver struct {
	logger Logger
}

// New creates a Resolver with no logger attached.
func New() *Resolver {
	return &Resolver{logger: noopLogger{}}
}

// SetLogger sets the logger used for non-fatal exclusion notices.
func (r *Resolver) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// Resolve builds the effective configuration for one device instance.
//
// Fatal errors (missing or unknown model, invalid option values,
// unknown placeholder keys) abort with an error naming the offending
// parameter. Condition evaluation failures are soft: the descriptor is
// excluded and logged, resolution continues.
//
// Resolve is pure and idempotent: identical inputs produce identical
// outputs, and the template is never modified.
func (r *Resolver) Resolve(tpl *template.Template, selections map[string]string) (*Resolved, error) {
	ctx, model, err := r.buildContext(tpl, selections)
	if err != nil {
		return nil, err
	}

	out := &Resolved{Context: ctx, Model: model}
	out.Sensors, err = r.resolveList(tpl, tpl.Sensors, ctx, selections)
	if err != nil {
		return nil, err
	}
	out.Controls, err = r.resolveList(tpl, tpl.Controls, ctx, selections)
	if err != nil {
		return nil, err
	}
	out.BinarySensors, err = r.resolveList(tpl, tpl.BinarySensors, ctx, selections)
	if err != nil {
		return nil, err
	}
	out.Calculated, err = r.resolveList(tpl, tpl.Calculated, ctx, selections)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildContext merges, in precedence order: the selected model's record
// (lowest), parameter defaults, then user selections.
func (r *Resolver) buildContext(tpl *template.Template, selections map[string]string) (condition.Context, string, error) {
	ctx := condition.Context{}
	model := ""

	if len(tpl.DynamicConfig.ValidModels) > 0 {
		sel, ok := selections[SelectedModelKey]
		if !ok || sel == "" {
			return nil, "", fmt.Errorf("%w: template %q requires %s", ErrMissingModelSelection, tpl.Name, SelectedModelKey)
		}
		record, ok := tpl.DynamicConfig.ValidModels[sel]
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownModel, sel)
		}
		for key, raw := range record {
			v, ok := condition.FromAny(raw)
			if !ok {
				// Load-time validation rejects non-scalars; guard anyway.
				return nil, "", fmt.Errorf("%w: model key %q", template.ErrNonScalarModelValue, key)
			}
			ctx[key] = v
		}
		ctx[SelectedModelKey] = condition.String(sel)
		model = sel
	}

	for name, p := range tpl.DynamicConfig.Parameters {
		value := p.Default
		if sel, ok := selections[name]; ok {
			if name != batteryConfigKey && !p.HasOption(sel) {
				return nil, "", fmt.Errorf("%w: %q is not an option of parameter %q", ErrInvalidOption, sel, name)
			}
			value = sel
		}
		if value != "" {
			ctx[name] = scalarize(value)
		}
	}

	// Selections must name parameters the template defines.
	for name := range selections {
		if name == SelectedModelKey {
			continue
		}
		if _, ok := tpl.DynamicConfig.Parameters[name]; !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
	}

	// The header firmware version backs the context when no parameter
	// overrides it.
	if _, ok := ctx["firmware_version"]; !ok && tpl.FirmwareVersion != "" {
		ctx["firmware_version"] = condition.String(tpl.FirmwareVersion)
	}

	return ctx, model, nil
}

// scalarize converts a selection string into its most specific scalar:
// bool, number, or string.
func scalarize(s string) condition.Value {
	switch s {
	case "true":
		return condition.Bool(true)
	case "false":
		return condition.Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return condition.Number(f)
	}
	return condition.String(s)
}

// resolveList applies the pipeline to one descriptor collection:
// replacement → availability-filter → condition-filter → substitution.
func (r *Resolver) resolveList(tpl *template.Template, list []*template.Descriptor, ctx condition.Context, selections map[string]string) ([]*template.Descriptor, error) {
	firmware := ctx["firmware_version"].AsString()
	out := make([]*template.Descriptor, 0, len(list))

	for _, d := range list {
		work, err := r.applyReplacements(tpl, d, firmware)
		if err != nil {
			return nil, err
		}

		if !r.available(tpl, work.UniqueID, selections) {
			r.logger.Debug("descriptor excluded by availability list", "unique_id", work.UniqueID)
			continue
		}

		if work.Condition != "" {
			ok, err := condition.Eval(work.Condition, ctx)
			if err != nil {
				r.logger.Warn("descriptor excluded: condition failed to evaluate",
					"unique_id", work.UniqueID,
					"condition", work.Condition,
					"error", err,
				)
				continue
			}
			if !ok {
				continue
			}
		}

		sub, err := r.substitute(work, ctx)
		if err != nil {
			return nil, fmt.Errorf("descriptor %q: %w", work.UniqueID, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

// applyReplacements returns the descriptor, or a working copy with
// firmware-scoped field overrides applied when the resolved firmware
// version matches an entry exactly.
func (r *Resolver) applyReplacements(tpl *template.Template, d *template.Descriptor, firmware string) (*template.Descriptor, error) {
	if firmware == "" {
		return d, nil
	}
	// Parameter names iterate sorted so replacements from two parameters
	// targeting the same descriptor apply in a stable order.
	names := make([]string, 0, len(tpl.DynamicConfig.Parameters))
	for pname := range tpl.DynamicConfig.Parameters {
		names = append(names, pname)
	}
	sort.Strings(names)

	work := d
	for _, pname := range names {
		byFw, ok := tpl.DynamicConfig.Parameters[pname].SensorReplacements[d.UniqueID]
		if !ok {
			continue
		}
		fields, ok := byFw[firmware]
		if !ok {
			continue
		}
		replaced, err := template.ApplyOverrides(work, fields)
		if err != nil {
			return nil, fmt.Errorf("parameter %q replacement for %q: %w", pname, d.UniqueID, err)
		}
		work = replaced
	}
	return work, nil
}

// available applies sensor_availability allow-lists: a descriptor
// listed under any option of a parameter is only available when the
// selected option's list contains it.
func (r *Resolver) available(tpl *template.Template, id string, selections map[string]string) bool {
	for pname, p := range tpl.DynamicConfig.Parameters {
		if len(p.SensorAvailability) == 0 {
			continue
		}
		listed := false
		for _, ids := range p.SensorAvailability {
			for _, i := range ids {
				if i == id {
					listed = true
					break
				}
			}
		}
		if !listed {
			continue
		}
		selected := selections[pname]
		if selected == "" {
			selected = p.Default
		}
		allowed := false
		for _, i := range p.SensorAvailability[selected] {
			if i == id {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}

// substitute resolves placeholder expressions in the descriptor's
// string and numeric fields. A clone is made only when something
// actually changes, so untouched descriptors keep sharing the
// template's canonical objects.
func (r *Resolver) substitute(d *template.Descriptor, ctx condition.Context) (*template.Descriptor, error) {
	if !needsSubstitution(d) {
		return d, nil
	}
	work := d.Clone()

	name, err := substituteString(work.Name, ctx)
	if err != nil {
		return nil, err
	}
	work.Name = name

	for _, f := range []*template.FloatOrExpr{
		&work.Scale, &work.Multiplier, &work.Offset,
		&work.Min, &work.Max, &work.Step,
	} {
		resolved, err := resolveFloat(*f, ctx)
		if err != nil {
			return nil, err
		}
		*f = resolved
	}
	return work, nil
}

func needsSubstitution(d *template.Descriptor) bool {
	if placeholderPattern.MatchString(d.Name) {
		return true
	}
	for _, f := range []template.FloatOrExpr{d.Scale, d.Multiplier, d.Offset, d.Min, d.Max, d.Step} {
		if f.IsExpr() {
			return true
		}
	}
	return false
}
