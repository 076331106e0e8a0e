package service

import (
	"testing"
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOpeningDuration = 35 * time.Second

var t0 = time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)

func newTestEngine() *DoorStateEngine {
	return NewDoorStateEngine(testOpeningDuration, zap.NewNop())
}

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func inputs(open, closed domain.SensorValue) domain.DoorInputs {
	return domain.DoorInputs{
		OpenSensor:   domain.SensorReading{Value: open},
		ClosedSensor: domain.SensorReading{Value: closed},
	}
}

func inputsWithToggle(open, closed domain.SensorValue, toggleAt time.Time) domain.DoorInputs {
	in := inputs(open, closed)
	in.ToggleLastChanged = &toggleAt
	return in
}

// drive the engine into a sensed closed state
func startClosed(t *testing.T, e *DoorStateEngine) {
	t.Helper()
	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOn), at(0))
	require.Equal(t, domain.DoorStateClosed, res.State)
}

// drive the engine into a sensed open state
func startOpen(t *testing.T, e *DoorStateEngine) {
	t.Helper()
	res := e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(0))
	require.Equal(t, domain.DoorStateOpen, res.State)
}

func TestBothSensorsOnIsFault(t *testing.T) {

	histories := map[string]func(*testing.T, *DoorStateEngine){
		"cold":        func(*testing.T, *DoorStateEngine) {},
		"from_closed": startClosed,
		"from_open":   startOpen,
		"mid_motion": func(t *testing.T, e *DoorStateEngine) {
			startClosed(t, e)
			res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))
			require.Equal(t, domain.DoorStateOpening, res.State)
		},
	}

	for name, setup := range histories {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine()
			setup(t, e)
			res := e.Evaluate(inputs(domain.SensorOn, domain.SensorOn), at(2))
			assert.Equal(t, domain.DoorStateUnavailable, res.State)
			assert.Nil(t, e.Window())
		})
	}
}

func TestDefinitiveReadings(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	res := e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(0))
	assert.Equal(domain.DoorStateOpen, res.State)
	assert.Equal(domain.DoorStateOpen, e.PreviousState())

	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOn), at(1))
	assert.Equal(domain.DoorStateClosed, res.State)
	assert.Equal(domain.DoorStateClosed, e.PreviousState())
}

func TestUnavailableSensorDegrades(t *testing.T) {

	cases := []struct {
		name         string
		open, closed domain.SensorValue
	}{
		{"open_unavailable", domain.SensorUnavailable, domain.SensorOff},
		{"closed_unavailable", domain.SensorOn, domain.SensorUnavailable},
		{"open_absent", domain.SensorAbsent, domain.SensorOn},
		{"both_absent", domain.SensorAbsent, domain.SensorAbsent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			startClosed(t, e)
			res := e.Evaluate(inputs(tc.open, tc.closed), at(1))
			assert.Equal(t, domain.DoorStateUnavailable, res.State)
			// previous state is retained for when sensors recover
			assert.Equal(t, domain.DoorStateClosed, e.PreviousState())
		})
	}
}

func TestUnavailableClearsMotionWindow(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startClosed(t, e)
	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))
	assert.Equal(domain.DoorStateOpening, res.State)
	assert.NotNil(e.Window())

	res = e.Evaluate(inputs(domain.SensorUnavailable, domain.SensorOff), at(2))
	assert.Equal(domain.DoorStateUnavailable, res.State)
	assert.True(res.WindowCleared)
	assert.Nil(e.Window())
}

func TestColdStartAssumesClosed(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(0))
	assert.Equal(domain.DoorStateClosed, res.State)
	assert.Nil(e.Window(), "cold start must not open a motion window")

	// repeating the observation must not fabricate motion
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(0))
	assert.Equal(domain.DoorStateClosed, res.State)
	assert.Nil(e.Window())
}

func TestDuplicateObservationIdempotence(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startClosed(t, e)

	in := inputs(domain.SensorOff, domain.SensorOff)
	first := e.Evaluate(in, at(1))
	second := e.Evaluate(in, at(1))
	assert.Equal(domain.DoorStateOpening, first.State)
	assert.Equal(first.State, second.State)
	assert.True(first.WindowOpened)
	assert.False(second.WindowOpened, "duplicate observation must not restart the window")
	assert.Equal(first.Window.StartedAt, second.Window.StartedAt)
}

func TestMotionLifecycle(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	e := newTestEngine()
	startClosed(t, e)

	// door leaves the closed switch
	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))
	require.Equal(domain.DoorStateOpening, res.State)
	require.True(res.WindowOpened)
	require.Equal(at(1), res.Window.StartedAt)

	// still in transit just before expiry
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(35))
	assert.Equal(domain.DoorStateOpening, res.State)

	// stall: motion took longer than the opening duration
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(36))
	assert.Equal(domain.DoorStateUnavailable, res.State)
	assert.True(res.WindowCleared)
	assert.Nil(e.Window())

	// both-off after a stall stays unavailable until a definitive reading
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(37))
	assert.Equal(domain.DoorStateUnavailable, res.State)

	// door finally reaches the open switch
	res = e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(40))
	assert.Equal(domain.DoorStateOpen, res.State)
}

func TestDefinitiveReadingResolvesMotionEarly(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startClosed(t, e)
	e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))

	res := e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(10))
	assert.Equal(domain.DoorStateOpen, res.State)
	assert.True(res.WindowCleared)
	assert.Nil(e.Window())
}

func TestOpeningFlickerSuppression(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	e := newTestEngine()
	startClosed(t, e)

	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))
	require.Equal(domain.DoorStateOpening, res.State)

	// closed sensor bounces back on for one observation mid-transit
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOn), at(3))
	assert.Equal(domain.DoorStateOpening, res.State, "flicker must not flap back to closed")
	assert.NotNil(e.Window(), "window survives the flicker")

	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(4))
	assert.Equal(domain.DoorStateOpening, res.State)

	// destination reading resolves the motion
	res = e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(12))
	assert.Equal(domain.DoorStateOpen, res.State)
}

func TestClosingFlickerSuppression(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	e := newTestEngine()
	startOpen(t, e)

	res := e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))
	require.Equal(domain.DoorStateClosing, res.State)

	// open sensor turns off late and bounces once
	res = e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(2))
	assert.Equal(domain.DoorStateClosing, res.State, "late open-sensor flicker must not read as still open")

	// the expected destination always short-circuits the window
	res = e.Evaluate(inputs(domain.SensorOff, domain.SensorOn), at(15))
	assert.Equal(domain.DoorStateClosed, res.State)
	assert.True(res.WindowCleared)
}

func TestExpiredWindowDoesNotSuppress(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startOpen(t, e)
	e.Evaluate(inputs(domain.SensorOff, domain.SensorOff), at(1))

	// window expired long ago: the open reading is authoritative again
	res := e.Evaluate(inputs(domain.SensorOn, domain.SensorOff), at(120))
	assert.Equal(domain.DoorStateOpen, res.State)
	assert.Nil(e.Window())
}

func TestToggleHintBackdatesMotionWindow(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	// opening_duration=35, toggle fired at t=0, first both-off seen at t=10:
	// the window must start at the toggle time, so it expires at t=35
	e := newTestEngine()
	startClosed(t, e)

	res := e.Evaluate(inputsWithToggle(domain.SensorOff, domain.SensorOff, at(0)), at(10))
	require.Equal(domain.DoorStateOpening, res.State)
	require.True(res.WindowOpened)
	assert.Equal(at(0), res.Window.StartedAt)

	res = e.Evaluate(inputsWithToggle(domain.SensorOff, domain.SensorOff, at(0)), at(40))
	assert.Equal(domain.DoorStateUnavailable, res.State, "window started at toggle time has expired")
}

func TestToggleHintIgnoredWhenStale(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startClosed(t, e)

	// toggle last changed far outside the opening duration: fall back to now
	res := e.Evaluate(inputsWithToggle(domain.SensorOff, domain.SensorOff, at(-3600)), at(10))
	assert.Equal(domain.DoorStateOpening, res.State)
	assert.Equal(at(10), res.Window.StartedAt)
}

func TestMotionResolvedBeforeTimeout(t *testing.T) {

	assert := assert.New(t)

	e := newTestEngine()
	startClosed(t, e)
	e.Evaluate(inputsWithToggle(domain.SensorOff, domain.SensorOff, at(0)), at(10))

	res := e.Evaluate(inputsWithToggle(domain.SensorOn, domain.SensorOff, at(0)), at(20))
	assert.Equal(domain.DoorStateOpen, res.State)
	assert.True(res.WindowCleared)
}

func TestTimeoutReevaluationIsStable(t *testing.T) {

	assert := assert.New(t)

	// the motion timeout re-evaluates with unchanged readings; a stale or
	// duplicate fire after the stall must not change anything
	e := newTestEngine()
	startClosed(t, e)
	in := inputs(domain.SensorOff, domain.SensorOff)
	e.Evaluate(in, at(1))

	res := e.Evaluate(in, at(36))
	assert.Equal(domain.DoorStateUnavailable, res.State)

	res = e.Evaluate(in, at(36))
	assert.Equal(domain.DoorStateUnavailable, res.State)
	assert.False(res.WindowOpened)
}
