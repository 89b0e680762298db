package mqtt

import (
	"encoding/json"
	"testing"
)

func TestTopics_State(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		entity string
		want   string
	}{
		{"default prefix", "", "inv1_battery_soc", "modbuscore/state/inv1_battery_soc"},
		{"custom prefix", "plant", "inv1_battery_soc", "plant/state/inv1_battery_soc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics := NewTopics(tt.prefix)
			if got := topics.State(tt.entity); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopics_SystemStatus(t *testing.T) {
	if got := NewTopics("plant").SystemStatus(); got != "plant/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
}

func TestStatePayload_JSON(t *testing.T) {
	numeric := 52.5
	body, err := json.Marshal(statePayload{
		State:     "52.5",
		Numeric:   &numeric,
		Available: true,
		Timestamp: "2026-01-02T15:04:05Z",
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["state"] != "52.5" || decoded["numeric"] != 52.5 || decoded["available"] != true {
		t.Errorf("payload = %v", decoded)
	}

	// Unavailable payloads omit the numeric field entirely.
	body, err = json.Marshal(statePayload{State: "unavailable", Timestamp: "2026-01-02T15:04:05Z"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded = nil
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, present := decoded["numeric"]; present {
		t.Error("numeric field present on unavailable payload")
	}
	if decoded["available"] != false {
		t.Errorf("available = %v, want false", decoded["available"])
	}
}
