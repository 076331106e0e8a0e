package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

const DefaultOpeningDurationSeconds = 35

// entity domains allowed for the toggle actuator
var toggleDomains = []string{"switch", "light"}

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Doors    []DoorConfig `mapstructure:"doors"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
	// topic tree where entity states are observed (HA statestream mirror)
	StatestreamTopic string `mapstructure:"statestream_topic"`
	// topic tree where entity commands (the toggle pulse) are published
	CommandTopic string `mapstructure:"command_topic"`
}

type DoorConfig struct {
	Name                   string
	OpenSensor             string `mapstructure:"open_sensor"`
	ClosedSensor           string `mapstructure:"closed_sensor"`
	ToggleEntity           string `mapstructure:"toggle_entity"`
	OpeningDurationSeconds uint   `mapstructure:"opening_duration_seconds"`
}

// Id returns the topic-safe identifier derived from the door name.
func (d DoorConfig) Id() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(d.Name)), " ", "_")
}

func (d DoorConfig) WatchedEntities() []string {
	return []string{d.OpenSensor, d.ClosedSensor, d.ToggleEntity}
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// CheckMQTTTopicTree validates a multi-level topic prefix like
// "homeassistant/statestream".
func CheckMQTTTopicTree(topic string) (string, error) {
	lowerTopic := strings.ToLower(strings.Trim(topic, "/"))
	topicTreeRegexp := regexp.MustCompile("^[a-z0-9_]+(/[a-z0-9_]+)*$")
	matches := topicTreeRegexp.FindAllStringSubmatch(lowerTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers, underscores and slashes")
	}
	return lowerTopic, nil
}

var entityIdRegexp = regexp.MustCompile(`^([a-z_]+)\.([a-zA-Z0-9_]+)$`)

// ParseEntityId splits a Home Assistant style entity id ("binary_sensor.garage_open")
// into its domain and object parts.
func ParseEntityId(entityId string) (string, string, error) {
	matches := entityIdRegexp.FindAllStringSubmatch(entityId, 1)
	if len(matches) == 0 {
		return "", "", fmt.Errorf("invalid entity id %q", entityId)
	}
	return matches[0][1], matches[0][2], nil
}

// CheckDoorConfig validates a single door and applies the opening duration default.
func CheckDoorConfig(door *DoorConfig) error {
	if strings.TrimSpace(door.Name) == "" {
		return errors.New("door name cannot be empty")
	}
	if _, err := CheckMQTTTopic(door.Id()); err != nil {
		return fmt.Errorf("door %q: name must reduce to letters, numbers and underscores", door.Name)
	}
	for _, sensor := range []string{door.OpenSensor, door.ClosedSensor} {
		if _, _, err := ParseEntityId(sensor); err != nil {
			return fmt.Errorf("door %q: %w", door.Name, err)
		}
	}
	domain, _, err := ParseEntityId(door.ToggleEntity)
	if err != nil {
		return fmt.Errorf("door %q: %w", door.Name, err)
	}
	if !isToggleDomain(domain) {
		return fmt.Errorf("door %q: toggle entity must be from domains %v, got %q", door.Name, toggleDomains, domain)
	}
	if door.OpenSensor == door.ClosedSensor {
		return fmt.Errorf("door %q: open_sensor and closed_sensor must differ", door.Name)
	}
	if door.OpeningDurationSeconds == 0 {
		door.OpeningDurationSeconds = DefaultOpeningDurationSeconds
	}
	return nil
}

// CheckDoors validates every configured door and rejects duplicate ids.
func CheckDoors(doors []DoorConfig) error {
	if len(doors) == 0 {
		return errors.New("at least one door must be configured")
	}
	seen := map[string]bool{}
	for i := range doors {
		if err := CheckDoorConfig(&doors[i]); err != nil {
			return err
		}
		id := doors[i].Id()
		if seen[id] {
			return fmt.Errorf("duplicate door id %q", id)
		}
		seen[id] = true
	}
	return nil
}

func isToggleDomain(domain string) bool {
	for _, d := range toggleDomains {
		if d == domain {
			return true
		}
	}
	return false
}
