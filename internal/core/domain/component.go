package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"

	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_GARAGE       = "garage"
	DEVICE_CLASS_MOVING       = "moving"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"

	ICON_GARAGE       = "mdi:garage"
	ICON_GARAGE_ALERT = "mdi:garage-alert"
)

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device           Device
	Id               string
	SensorType       string
	Name             string
	UniqueId         string
	DeviceClass      string
	EntityCategory   string
	EnabledByDefault *bool
	Icon             string
}

// GenericCover is a commandable cover entity (the garage door itself).
type GenericCover struct {
	Device      Device
	Id          string
	Name        string
	UniqueId    string
	DeviceClass string
	Icon        string
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("garagedoor_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Garagedoor2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Garagedoor2MQTT %s", md5HashShort(baseTopic)),
	}
}

func DoorDevice(doorId, doorName string) Device {
	return Device{
		Id:           fmt.Sprintf("gd_door_%s", md5HashShort(doorId)),
		Manufacturer: "Smart Garage",
		Model:        "Garage Door",
		Name:         doorName,
	}
}

// IdDevice strips everything but the id so repeated discovery messages for the
// same device stay small.
func IdDevice(device Device) Device {
	return Device{
		Id: device.Id,
	}
}

func BridgeSensors(device Device) []GenericSensor {
	return []GenericSensor{
		{
			Device:         device,
			Id:             SENSOR_ID_BRIDGE_STATE,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Bridge state",
			UniqueId:       fmt.Sprintf("%s_%s", device.Id, SENSOR_ID_BRIDGE_STATE),
			DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		},
	}
}

func DoorCover(device Device, doorId, doorName string) GenericCover {
	return GenericCover{
		Device:      device,
		Id:          doorId,
		Name:        doorName,
		UniqueId:    fmt.Sprintf("%s_cover", device.Id),
		DeviceClass: DEVICE_CLASS_GARAGE,
	}
}

func DoorSensors(device Device, doorId, doorName string) []GenericSensor {
	return []GenericSensor{
		{
			Device:         device,
			Id:             DoorStateSensorId(doorId),
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           fmt.Sprintf("%s State", doorName),
			UniqueId:       fmt.Sprintf("%s_state", device.Id),
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			Icon:           ICON_GARAGE,
		},
		{
			Device:      device,
			Id:          DoorMovingSensorId(doorId),
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        fmt.Sprintf("%s Moving", doorName),
			UniqueId:    fmt.Sprintf("%s_moving", device.Id),
			DeviceClass: DEVICE_CLASS_MOVING,
			Icon:        ICON_GARAGE_ALERT,
		},
	}
}

func DoorStateSensorId(doorId string) string {
	return fmt.Sprintf("%s_state", doorId)
}

func DoorMovingSensorId(doorId string) string {
	return fmt.Sprintf("%s_moving", doorId)
}

func md5HashShort(value string) string {
	hash := md5.Sum([]byte(value))
	return hex.EncodeToString(hash[:])[:8]
}
