package main

import (
	"testing"

	"github.com/nordvik-automation/modbus-core/internal/infrastructure/config"
)

// ─── Planner option conversion ──────────────────────────────────────────────

func TestPlannerOptions(t *testing.T) {
	tests := []struct {
		name          string
		pc            config.PlannerConfig
		wantBlock     uint16
		wantTolerance uint16
	}{
		{
			name:          "defaults",
			pc:            config.PlannerConfig{MaxBlockSize: 100, MergeTolerance: 2},
			wantBlock:     100,
			wantTolerance: 2,
		},
		{
			name:          "protocol maximum",
			pc:            config.PlannerConfig{MaxBlockSize: 125, MergeTolerance: 0},
			wantBlock:     125,
			wantTolerance: 0,
		},
		{
			name:          "single register blocks",
			pc:            config.PlannerConfig{MaxBlockSize: 1, MergeTolerance: 40},
			wantBlock:     1,
			wantTolerance: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := plannerOptions(tt.pc)
			if opts.MaxBlockSize != tt.wantBlock {
				t.Errorf("MaxBlockSize = %d, want %d", opts.MaxBlockSize, tt.wantBlock)
			}
			if opts.MergeTolerance != tt.wantTolerance {
				t.Errorf("MergeTolerance = %d, want %d", opts.MergeTolerance, tt.wantTolerance)
			}
		})
	}
}
