package events

import (
	. "github.com/berfenger/garagedoor2mqtt/internal/core/domain"
)

// DoorStateToUpdateEvents maps an inferred door state to the cover and
// diagnostic sensor updates published on the event bus.
func DoorStateToUpdateEvents(doorId string, state DoorState) []any {
	var events []any

	// cover state
	events = append(events, CoverStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: doorId,
		},
		State: state,
	})
	// diagnostic text state
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: DoorStateSensorId(doorId),
		},
		Value: string(state),
	})
	// moving binary sensor
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: DoorMovingSensorId(doorId),
		},
		Value: state.IsMoving(),
	})

	return events
}
