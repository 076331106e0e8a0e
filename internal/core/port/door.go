package port

import (
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
)

// DoorStateLogic infers the door state from sensor readings. Implementations
// are deterministic and side-effect-free given their inputs; all calls for a
// given door must be serialized by the owner.
type DoorStateLogic interface {
	Evaluate(inputs domain.DoorInputs, now time.Time) domain.DoorEvalResult
	State() domain.DoorState
	PreviousState() domain.DoorState
	Window() *domain.MotionWindow
	OpeningDuration() time.Duration
}

// CommandGate decides whether a requested command is valid in the current
// inferred state.
type CommandGate interface {
	Allows(command domain.DoorCommand, state domain.DoorState) bool
}
