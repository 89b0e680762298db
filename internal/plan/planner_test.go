package plan

import (
	"errors"
	"testing"

	"github.com/nordvik-automation/modbus-core/internal/template"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func sensor(id string, addr, count uint16) *template.Descriptor {
	return &template.Descriptor{
		UniqueID: id,
		Kind:     template.KindSensor,
		Address:  addr,
		Table:    template.TableHolding,
		DataType: template.TypeUint16,
		Count:    count,
	}
}

func wantReads(t *testing.T, got []Read, want []Read) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d reads %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("read %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// ─── Merging ────────────────────────────────────────────────────────────────

func TestPlan_ToleranceMerging(t *testing.T) {
	descs := []*template.Descriptor{
		sensor("a", 10, 2),
		sensor("b", 13, 1),
		sensor("c", 50, 1),
	}

	// Gap of 1 between a and b is within tolerance 2; the 36-register
	// gap to c is not.
	got, err := Plan(descs, Options{MergeTolerance: 2})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 10, Count: 4},
		{Slave: 0, Table: template.TableHolding, Start: 50, Count: 1},
	})

	// A generous tolerance folds everything into one span.
	got, err = Plan(descs, Options{MergeTolerance: 40})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 10, Count: 41},
	})
}

func TestPlan_ZeroToleranceKeepsGaps(t *testing.T) {
	descs := []*template.Descriptor{
		sensor("a", 10, 1),
		sensor("b", 12, 1),
	}

	got, err := Plan(descs, Options{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 10, Count: 1},
		{Slave: 0, Table: template.TableHolding, Start: 12, Count: 1},
	})
}

// Overlapping descriptors always share a span, tolerance or not: two
// entities decoding the same register must see the same snapshot.
func TestPlan_OverlapAlwaysMerges(t *testing.T) {
	descs := []*template.Descriptor{
		sensor("word", 20, 1),
		sensor("dword", 20, 2),
		sensor("touching", 22, 1),
	}

	got, err := Plan(descs, Options{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 20, Count: 3},
	})
}

func TestPlan_CapStopsMerging(t *testing.T) {
	descs := []*template.Descriptor{
		sensor("a", 0, 6),
		sensor("b", 7, 6),
	}

	// The merged span would be 13 registers; a cap of 10 forbids it even
	// though the gap fits the tolerance.
	got, err := Plan(descs, Options{MaxBlockSize: 10, MergeTolerance: 2})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 0, Count: 6},
		{Slave: 0, Table: template.TableHolding, Start: 7, Count: 6},
	})
}

// ─── Grouping ───────────────────────────────────────────────────────────────

func TestPlan_GroupsBySlaveAndTable(t *testing.T) {
	five := uint8(5)
	input := sensor("in", 10, 1)
	input.Table = template.TableInput
	other := sensor("other", 10, 1)
	other.Slave = &five

	descs := []*template.Descriptor{
		sensor("hold", 10, 1),
		input,
		other,
	}

	got, err := Plan(descs, Options{DefaultSlave: 1, MergeTolerance: 2})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 1, Table: template.TableHolding, Start: 10, Count: 1},
		{Slave: 1, Table: template.TableInput, Start: 10, Count: 1},
		{Slave: 5, Table: template.TableHolding, Start: 10, Count: 1},
	})
}

func TestPlan_SumScaleReach(t *testing.T) {
	d := sensor("total", 96, 1)
	d.SumScale = []template.SumTerm{{Offset: 0, Scale: 1}, {Offset: 2, Scale: 1}}

	got, err := Plan([]*template.Descriptor{d}, Options{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantReads(t, got, []Read{
		{Slave: 0, Table: template.TableHolding, Start: 96, Count: 3},
	})
}

// ─── Errors ─────────────────────────────────────────────────────────────────

func TestPlan_DescriptorTooWide(t *testing.T) {
	_, err := Plan([]*template.Descriptor{sensor("blob", 0, 30)}, Options{MaxBlockSize: 20})
	if !errors.Is(err, ErrDescriptorTooWide) {
		t.Errorf("Plan() error = %v, want ErrDescriptorTooWide", err)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	three := uint8(3)
	b := sensor("b", 200, 2)
	b.Slave = &three

	descs := []*template.Descriptor{
		sensor("c", 50, 1),
		b,
		sensor("a", 10, 1),
	}

	first, err := Plan(descs, Options{DefaultSlave: 1, MergeTolerance: 2})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Plan(descs, Options{DefaultSlave: 1, MergeTolerance: 2})
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		wantReads(t, again, first)
	}
}

func TestRead_Contains(t *testing.T) {
	r := Read{Start: 10, Count: 5}

	tests := []struct {
		addr, count uint16
		want        bool
	}{
		{10, 5, true},
		{10, 1, true},
		{14, 1, true},
		{9, 1, false},
		{14, 2, false},
		{15, 1, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.addr, tt.count); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.addr, tt.count, got, tt.want)
		}
	}
}
