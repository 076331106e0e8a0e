package domain

import "time"

// DoorState is the inferred physical state of a garage door. It is the only
// externally observable output of the inference engine.
type DoorState string

const (
	DoorStateOpen        DoorState = "open"
	DoorStateClosed      DoorState = "closed"
	DoorStateOpening     DoorState = "opening"
	DoorStateClosing     DoorState = "closing"
	DoorStateUnavailable DoorState = "unavailable"
)

func (s DoorState) IsDefinitive() bool {
	return s == DoorStateOpen || s == DoorStateClosed
}

func (s DoorState) IsMoving() bool {
	return s == DoorStateOpening || s == DoorStateClosing
}

// DoorCommand is a requested door operation. All three are realized as the same
// physical toggle pulse; the door's own state decides what a pulse accomplishes.
type DoorCommand string

const (
	DoorCommandOpen  DoorCommand = "open"
	DoorCommandClose DoorCommand = "close"
	DoorCommandStop  DoorCommand = "stop"
)

// SensorValue is the observed value of a watched binary entity.
type SensorValue string

const (
	SensorOn          SensorValue = "on"
	SensorOff         SensorValue = "off"
	SensorUnavailable SensorValue = "unavailable"
	// SensorAbsent means the entity has not been observed yet.
	SensorAbsent SensorValue = "absent"
)

// Known reports whether the value carries usable information.
func (v SensorValue) Known() bool {
	return v == SensorOn || v == SensorOff
}

type SensorReading struct {
	Value         SensorValue `json:"value"`
	LastChangedAt time.Time   `json:"last_changed_at"`
}

func AbsentReading() SensorReading {
	return SensorReading{Value: SensorAbsent}
}

// MotionWindow is the bounded interval during which the door is believed to be
// in transit. It exists only while motion is unresolved.
type MotionWindow struct {
	StartedAt time.Time `json:"started_at"`
}

func (w MotionWindow) ExpiresAt(openingDuration time.Duration) time.Time {
	return w.StartedAt.Add(openingDuration)
}

func (w MotionWindow) Expired(now time.Time, openingDuration time.Duration) bool {
	return !now.Before(w.ExpiresAt(openingDuration))
}

// DoorInputs is everything the inference engine looks at on one evaluation.
type DoorInputs struct {
	OpenSensor   SensorReading
	ClosedSensor SensorReading
	// last time the toggle actuator entity itself changed, if ever observed
	ToggleLastChanged *time.Time
}

// DoorEvalResult is the outcome of one inference engine evaluation. The timer
// bookkeeping flags let the owning actor arm or cancel the motion timeout
// without reaching into engine internals.
type DoorEvalResult struct {
	State DoorState
	// a new motion window was opened by this evaluation
	WindowOpened bool
	// the motion window was cleared by this evaluation
	WindowCleared bool
	Window        *MotionWindow
}

// DoorSnapshot is the diagnostic view of a single door.
type DoorSnapshot struct {
	Id            string        `json:"id"`
	State         DoorState     `json:"state"`
	PreviousState DoorState     `json:"previous_state,omitempty"`
	MotionWindow  *MotionWindow `json:"motion_window,omitempty"`
	OpenSensor    SensorReading `json:"open_sensor"`
	ClosedSensor  SensorReading `json:"closed_sensor"`
	ToggleLastChanged *time.Time `json:"toggle_last_changed,omitempty"`
}
