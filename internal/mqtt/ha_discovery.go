package mqtt

import (
	"fmt"

	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device           HADiscoveryDevice `json:"device"`
	StateTopic       string            `json:"state_topic"`
	CommandTopic     string            `json:"command_topic,omitempty"`
	DeviceClass      string            `json:"device_class,omitempty"`
	AvTopic          string            `json:"availability_topic,omitempty"`
	EntityCategory   string            `json:"entity_category,omitempty"`
	Name             string            `json:"name"`
	UniqueId         string            `json:"unique_id"`
	Platform         string            `json:"platform"`
	EnabledByDefault *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn        string            `json:"payload_on,omitempty"`
	PayloadOff       string            `json:"payload_off,omitempty"`
	PayloadOpen      string            `json:"payload_open,omitempty"`
	PayloadClose     string            `json:"payload_close,omitempty"`
	PayloadStop      string            `json:"payload_stop,omitempty"`
	StateOpen        string            `json:"state_open,omitempty"`
	StateOpening     string            `json:"state_opening,omitempty"`
	StateClosed      string            `json:"state_closed,omitempty"`
	StateClosing     string            `json:"state_closing,omitempty"`
	Icon             string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(discoveryTopic string, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func HADiscoveryCoverTopic(discoveryTopic string, cover domain.GenericCover) string {
	return fmt.Sprintf("%s/cover/%s/%s/config", discoveryTopic, cover.Device.Id, cover.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	case sensor.SensorType == domain.SENSOR_TYPE_SENSOR:
		topic = client.SensorStateTopic(sensor.Id)
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		topic = client.BinarySensorStateTopic(sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:           dev,
		StateTopic:       topic,
		DeviceClass:      sensor.DeviceClass,
		AvTopic:          client.BridgeStateTopic(),
		EntityCategory:   sensor.EntityCategory,
		Name:             sensor.Name,
		UniqueId:         sensor.UniqueId,
		Icon:             sensor.Icon,
		EnabledByDefault: sensor.EnabledByDefault,
		Platform:         "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else if sensor.SensorType == domain.SENSOR_TYPE_BINARY {
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	}
	return disConfig
}

func GenericCoverToHADiscoveryMessage(client *MQTTClient, cover domain.GenericCover) HADiscoveryConfig {
	dev := device(cover.Device)
	disConfig := HADiscoveryConfig{
		Device:       dev,
		StateTopic:   client.CoverStateTopic(cover.Id),
		CommandTopic: client.CoverCommandTopic(cover.Id),
		DeviceClass:  cover.DeviceClass,
		AvTopic:      client.BridgeStateTopic(),
		Name:         cover.Name,
		UniqueId:     cover.UniqueId,
		Icon:         cover.Icon,
		Platform:     "mqtt",
		PayloadOpen:  MQTT_COVER_PAYLOAD_OPEN,
		PayloadClose: MQTT_COVER_PAYLOAD_CLOSE,
		PayloadStop:  MQTT_COVER_PAYLOAD_STOP,
		StateOpen:    string(domain.DoorStateOpen),
		StateOpening: string(domain.DoorStateOpening),
		StateClosed:  string(domain.DoorStateClosed),
		StateClosing: string(domain.DoorStateClosing),
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
