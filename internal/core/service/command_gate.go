package service

import (
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/core/port"
)

// DefaultCommandGate validates door commands against the inferred state.
// The physical actuator is a single-button toggle, so every accepted command
// ends up as the same pulse; the gate only decides whether a pulse makes
// sense right now.
type DefaultCommandGate struct{}

func (g DefaultCommandGate) Allows(command domain.DoorCommand, state domain.DoorState) bool {
	switch command {
	case domain.DoorCommandOpen:
		return state == domain.DoorStateClosed
	case domain.DoorCommandClose:
		return state == domain.DoorStateOpen
	case domain.DoorCommandStop:
		return state.IsMoving()
	}
	return false
}

// ensure interface compliance
var _ port.CommandGate = (*DefaultCommandGate)(nil)
