package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// statePayload is the JSON body published per entity state.
type statePayload struct {
	State     string   `json:"state"`
	Numeric   *float64 `json:"numeric,omitempty"`
	Available bool     `json:"available"`
	Timestamp string   `json:"timestamp"`
}

// StateSink publishes decoded entity states as retained messages. It
// implements the poller's Sink interface.
type StateSink struct {
	client *Client
	qos    byte
}

// NewStateSink creates a sink over a connected client.
func NewStateSink(client *Client) *StateSink {
	return &StateSink{
		client: client,
		qos:    byte(client.cfg.QoS),
	}
}

// Publish delivers one decoded reading to the entity's state topic.
func (s *StateSink) Publish(entityID string, display string, numeric float64) error {
	body, err := json.Marshal(statePayload{
		State:     display,
		Numeric:   &numeric,
		Available: true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding state for %s: %w", entityID, err)
	}
	return s.client.Publish(s.client.topics.State(entityID), body, s.qos, true)
}

// Unavailable marks an entity's reading unavailable for this cycle.
// The retained message keeps the last topic state discoverable while
// flagging it stale.
func (s *StateSink) Unavailable(entityID string) error {
	body, err := json.Marshal(statePayload{
		State:     "unavailable",
		Available: false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding state for %s: %w", entityID, err)
	}
	return s.client.Publish(s.client.topics.State(entityID), body, s.qos, true)
}
