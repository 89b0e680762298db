// Package template provides the parsed, immutable representation of a
// device template document.
//
// A template describes one device family: a header with identity and
// defaults, a dynamic-config block with user-selectable parameters, and
// four descriptor collections (sensors, controls, binary_sensors,
// calculated). Templates are loaded from YAML once and shared by
// reference across every device instance built from them; nothing in
// this package mutates a Template after Load returns.
//
// # Key Types
//
//   - Template: one parsed device template document
//   - Descriptor: declarative definition of one entity's data source and
//     transform pipeline (address, data type, bit pipeline, scaling, maps)
//   - DynamicConfig: the user-selectable parameter block, including the
//     distinguished valid_models table
//
// # Usage
//
//	tpl, err := template.Load("templates/sunsynk_hybrid.yaml")
//	if err != nil {
//	    return err
//	}
//	for _, d := range tpl.Sensors {
//	    fmt.Println(d.UniqueID, d.Address)
//	}
//
// Descriptors are never modified in place: overrides (firmware
// replacements, placeholder resolution) work on copies produced by
// Descriptor.Clone.
package template
