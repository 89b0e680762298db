// Package resolve builds the effective configuration of one device
// instance from a template and the user's parameter selections.
//
// Resolution runs once at instance setup (and again on explicit reload)
// and is a pure function: the same template and selections always yield
// the same Resolved output, and the canonical template is never touched.
//
// The pipeline, in fixed order:
//
//  1. Context construction: the selected model's key/value record is
//     merged first (lowest precedence), then each parameter's default or
//     user override.
//  2. Firmware replacements: field overrides applied to working copies
//     of the descriptors they name, keyed by exact firmware version.
//  3. Availability filtering: sensor_availability lists become implicit
//     allow-list conditions on the owning parameter's selected value.
//  4. Condition filtering: descriptors kept only when their condition
//     evaluates true. Evaluator errors exclude the descriptor and are
//     logged, never fatal, so templates stay forward compatible with
//     context keys this build does not know.
//  5. Placeholder substitution: "{{expr}}" arithmetic over context
//     keys, re-rendered as each field's native type. An undefined key
//     here is a configuration defect and fails the whole resolution.
//
// The replacement → availability → condition order is part of the
// contract; both override mechanisms answer "is this descriptor present,
// and with which fields", and a fixed composition order keeps them from
// interacting in surprising ways.
package resolve
