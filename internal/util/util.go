package util

import (
	"github.com/berfenger/garagedoor2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "garagedoor2mqtt",
			StatestreamTopic: "homeassistant/statestream",
			CommandTopic:     "homeassistant/command",
		},
		Doors: []config.DoorConfig{
			{
				Name:                   "Main Door",
				OpenSensor:             "binary_sensor.garage_open",
				ClosedSensor:           "binary_sensor.garage_closed",
				ToggleEntity:           "switch.garage_toggle",
				OpeningDurationSeconds: 35,
			},
		},
		Port: 8080,
	}
}
