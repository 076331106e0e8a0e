package domain

import "time"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	// door actors are spawned as ACTOR_ID_DOOR_PREFIX + door id
	ACTOR_ID_DOOR_PREFIX = "door_"
)

// EntityObservation is delivered for each watched entity whenever its observed
// state changes. At is the timestamp the change was seen.
type EntityObservation struct {
	EntityId string
	Value    SensorValue
	At       time.Time
}

type DoorCommandRequest struct {
	ActorRequestMixIn
	DoorId  string
	Command DoorCommand
}

type DoorCommandResponse struct {
	ActorResponseMixIn
	DoorId   string
	Command  DoorCommand
	Accepted bool
	// state the door was in when the command was evaluated
	State DoorState
}

type GetDoorStateRequest struct {
	ActorRequestMixIn
	DoorId string
}

type GetDoorStateResponse struct {
	ActorResponseMixIn
	DoorId string
	State  DoorState
}

type GetDoorSnapshotRequest struct {
	ActorRequestMixIn
	DoorId string
}

type GetDoorSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot DoorSnapshot
}

// ActivateToggleRequest asks the transport to fire a single toggle pulse on the
// actuator entity. Fire-and-forget from the door's perspective.
type ActivateToggleRequest struct {
	ActorRequestMixIn
	EntityId string
}

type ActivateToggleResponse struct {
	ActorResponseMixIn
}

// SubscribeEntitiesRequest (re)subscribes the transport to the given entity
// observation topics. Idempotent; used on startup and by the bounded
// missing-entity retries.
type SubscribeEntitiesRequest struct {
	ActorRequestMixIn
	EntityIds []string
}

type SubscribeEntitiesResponse struct {
	ActorResponseMixIn
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Covers  []GenericCover
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
