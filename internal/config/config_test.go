package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityId(t *testing.T) {

	assert := assert.New(t)

	domain, object, err := ParseEntityId("binary_sensor.garage_open")
	require.NoError(t, err)
	assert.Equal("binary_sensor", domain)
	assert.Equal("garage_open", object)

	_, _, err = ParseEntityId("garage_open")
	assert.Error(err)

	_, _, err = ParseEntityId("binary_sensor.garage.open")
	assert.Error(err)
}

func TestCheckDoorConfigDefaults(t *testing.T) {

	door := DoorConfig{
		Name:         "Main Garage",
		OpenSensor:   "binary_sensor.garage_open",
		ClosedSensor: "binary_sensor.garage_closed",
		ToggleEntity: "switch.garage_toggle",
	}
	require.NoError(t, CheckDoorConfig(&door))
	assert.EqualValues(t, DefaultOpeningDurationSeconds, door.OpeningDurationSeconds)
	assert.Equal(t, "main_garage", door.Id())
}

func TestCheckDoorConfigToggleDomain(t *testing.T) {

	assert := assert.New(t)

	door := DoorConfig{
		Name:         "garage",
		OpenSensor:   "binary_sensor.garage_open",
		ClosedSensor: "binary_sensor.garage_closed",
		ToggleEntity: "binary_sensor.garage_toggle",
	}
	assert.Error(CheckDoorConfig(&door), "toggle entity must be a switch or light")

	door.ToggleEntity = "light.shelly_garage_relay"
	assert.NoError(CheckDoorConfig(&door))
}

func TestCheckDoorsDuplicates(t *testing.T) {

	doors := []DoorConfig{
		{
			Name:         "Garage",
			OpenSensor:   "binary_sensor.a",
			ClosedSensor: "binary_sensor.b",
			ToggleEntity: "switch.t",
		},
		{
			Name:         "garage",
			OpenSensor:   "binary_sensor.c",
			ClosedSensor: "binary_sensor.d",
			ToggleEntity: "switch.u",
		},
	}
	assert.Error(t, CheckDoors(doors), "door ids collide after normalization")
}

func TestCheckDoorsEmpty(t *testing.T) {
	assert.Error(t, CheckDoors(nil))
}
