package mqtt

import "fmt"

// DefaultTopicPrefix is the root of all published topics when the
// config does not override it.
const DefaultTopicPrefix = "modbuscore"

// Topics builds the topic names used by the state sink. Using these
// helpers keeps topic naming consistent across the codebase.
type Topics struct {
	prefix string
}

// NewTopics creates a Topics builder rooted at prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// State returns the retained state topic for one entity.
//
// Example: modbuscore/state/inverter1_battery_soc
func (t Topics) State(entityID string) string {
	return fmt.Sprintf("%s/state/%s", t.prefix, entityID)
}

// SystemStatus returns the online/offline status topic.
//
// Example: modbuscore/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}
