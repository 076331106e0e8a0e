package service

import (
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// DoorStateEngine infers the door state from the open/closed proximity sensors,
// keeping a motion window while the door is believed to be in transit.
//
// The engine is deterministic given its inputs and never returns an error:
// every unresolvable input combination degrades to unavailable. It owns the
// previous-state and motion-window records; callers must serialize Evaluate
// calls per door.
type DoorStateEngine struct {
	openingDuration time.Duration
	logger          *zap.Logger

	state  domain.DoorState
	prev   domain.DoorState
	window *domain.MotionWindow
}

func NewDoorStateEngine(openingDuration time.Duration, logger *zap.Logger) *DoorStateEngine {
	return &DoorStateEngine{
		openingDuration: openingDuration,
		logger:          logger,
		state:           domain.DoorStateUnavailable,
	}
}

// Evaluate computes the door state from the given readings. Rules are applied
// in strict priority order:
//
//  1. missing/unavailable sensor data wins over everything
//  2. both sensors on is a sensor fault
//  3. a single definitive reading is accepted, unless it contradicts an
//     active motion window (flicker suppression); a reading that matches the
//     motion's destination always resolves the window early
//  4. both sensors off means the door is in transit, was just detected
//     starting to move, or has stalled past the opening duration
func (e *DoorStateEngine) Evaluate(in domain.DoorInputs, now time.Time) domain.DoorEvalResult {
	res := e.evaluate(in, now)
	e.state = res.State
	if e.window != nil {
		w := *e.window
		res.Window = &w
	}
	return res
}

func (e *DoorStateEngine) evaluate(in domain.DoorInputs, now time.Time) domain.DoorEvalResult {
	if !in.OpenSensor.Value.Known() || !in.ClosedSensor.Value.Known() {
		e.logger.Debug("sensor reading missing or unavailable",
			zap.String("open", string(in.OpenSensor.Value)),
			zap.String("closed", string(in.ClosedSensor.Value)))
		return e.degrade()
	}

	openOn := in.OpenSensor.Value == domain.SensorOn
	closedOn := in.ClosedSensor.Value == domain.SensorOn

	switch {
	case openOn && closedOn:
		// contradictory readings, hardware fault signal
		e.logger.Warn("both sensors report on at the same time")
		return e.degrade()
	case openOn:
		if e.motionActive(now) && e.prev == domain.DoorStateOpen {
			// door is mid-travel away from open; a late flicker of the open
			// sensor must not read as "still open"
			return domain.DoorEvalResult{State: domain.DoorStateClosing}
		}
		return e.acceptDefinitive(domain.DoorStateOpen)
	case closedOn:
		if e.motionActive(now) && e.prev == domain.DoorStateClosed {
			return domain.DoorEvalResult{State: domain.DoorStateOpening}
		}
		return e.acceptDefinitive(domain.DoorStateClosed)
	default:
		return e.evaluateBothOff(in, now)
	}
}

func (e *DoorStateEngine) evaluateBothOff(in domain.DoorInputs, now time.Time) domain.DoorEvalResult {
	if e.window != nil {
		if e.window.Expired(now, e.openingDuration) {
			e.logger.Warn("motion exceeded opening duration, treating as stall",
				zap.Time("startedAt", e.window.StartedAt),
				zap.Duration("openingDuration", e.openingDuration))
			e.window = nil
			return domain.DoorEvalResult{State: domain.DoorStateUnavailable, WindowCleared: true}
		}
		return domain.DoorEvalResult{State: e.motionDirection()}
	}

	if e.state.IsDefinitive() && e.state == e.prev {
		// motion start: transition from a sensed definitive state to both-off
		startedAt := now
		if t := in.ToggleLastChanged; t != nil && !t.After(now) && now.Sub(*t) < e.openingDuration {
			// the actuator fired recently, motion likely started then
			startedAt = *t
		}
		e.window = &domain.MotionWindow{StartedAt: startedAt}
		return domain.DoorEvalResult{State: e.motionDirection(), WindowOpened: true}
	}

	if e.prev == "" {
		// cold start, never seen a definitive reading: most installations
		// rest closed. The previous state stays unset so a duplicate
		// observation is not mistaken for a motion start.
		return domain.DoorEvalResult{State: domain.DoorStateClosed}
	}

	// both-off with no usable history (e.g. after a stall or a sensor
	// outage): stay unavailable until a definitive reading arrives
	return domain.DoorEvalResult{State: domain.DoorStateUnavailable}
}

// degrade clears motion tracking and reports unavailable. The previous state
// is retained so direction can still be inferred once sensors recover.
func (e *DoorStateEngine) degrade() domain.DoorEvalResult {
	cleared := e.window != nil
	e.window = nil
	return domain.DoorEvalResult{State: domain.DoorStateUnavailable, WindowCleared: cleared}
}

func (e *DoorStateEngine) acceptDefinitive(s domain.DoorState) domain.DoorEvalResult {
	cleared := e.window != nil
	e.window = nil
	e.prev = s
	return domain.DoorEvalResult{State: s, WindowCleared: cleared}
}

func (e *DoorStateEngine) motionActive(now time.Time) bool {
	return e.window != nil && !e.window.Expired(now, e.openingDuration)
}

// motionDirection derives the transitional state from the last definitive
// state. A motion window only ever exists with a definitive previous state.
func (e *DoorStateEngine) motionDirection() domain.DoorState {
	if e.prev == domain.DoorStateOpen {
		return domain.DoorStateClosing
	}
	return domain.DoorStateOpening
}

func (e *DoorStateEngine) State() domain.DoorState {
	return e.state
}

func (e *DoorStateEngine) PreviousState() domain.DoorState {
	return e.prev
}

func (e *DoorStateEngine) Window() *domain.MotionWindow {
	if e.window == nil {
		return nil
	}
	w := *e.window
	return &w
}

func (e *DoorStateEngine) OpeningDuration() time.Duration {
	return e.openingDuration
}

// ensure interface compliance
var _ port.DoorStateLogic = (*DoorStateEngine)(nil)
