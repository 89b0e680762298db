package template

// Clone creates a complete independent copy of the Descriptor. All map,
// slice and pointer fields are duplicated so overrides applied to the
// copy never reach the canonical template.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}

	cpy := *d // value fields

	cpy.Slave = clonePtr(d.Slave)
	cpy.BitMask = clonePtr(d.BitMask)
	cpy.BitPosition = clonePtr(d.BitPosition)
	cpy.Precision = clonePtr(d.Precision)
	cpy.Sentinel = clonePtr(d.Sentinel)
	cpy.WriteValue = clonePtr(d.WriteValue)
	cpy.WriteValueOff = clonePtr(d.WriteValueOff)
	cpy.OnValue = clonePtr(d.OnValue)
	cpy.OffValue = clonePtr(d.OffValue)

	if d.BitRange != nil {
		r := *d.BitRange
		cpy.BitRange = &r
	}

	if d.SumScale != nil {
		cpy.SumScale = make([]SumTerm, len(d.SumScale))
		copy(cpy.SumScale, d.SumScale)
	}

	cpy.Map = cloneMap(d.Map)
	cpy.Options = cloneMap(d.Options)
	if d.Flags != nil {
		cpy.Flags = make(map[uint8]string, len(d.Flags))
		for k, v := range d.Flags {
			cpy.Flags[k] = v
		}
	}

	return &cpy
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cpy := make(map[string]string, len(m))
	for k, v := range m {
		cpy[k] = v
	}
	return cpy
}
