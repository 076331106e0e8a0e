package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/config"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/core/events"
	"github.com/berfenger/garagedoor2mqtt/internal/core/port"
	"github.com/berfenger/garagedoor2mqtt/internal/core/service"
	. "github.com/berfenger/garagedoor2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// resubscribe nudge delays used when a watched entity has not been seen yet
var missingEntityRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

type DoorActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	door        config.DoorConfig
	engine      port.DoorStateLogic
	gate        port.CommandGate
	mqttActor   *actor.PID
	eventStream *eventstream.EventStream

	openReading       domain.SensorReading
	closedReading     domain.SensorReading
	toggleLastChanged *time.Time

	cancelMotionTimeout scheduler.CancelFunc
	lastPublished       domain.DoorState
	retryCount          int

	pendingCommand *pendingDoorCommand

	logger *zap.Logger
}

type motionTimeoutTick struct {
}

type missingEntityTick struct {
}

type pendingDoorCommand struct {
	command domain.DoorCommand
	state   domain.DoorState
	replyTo *actor.PID
}

func NewDoorActor(door config.DoorConfig, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *DoorActor {
	act := &DoorActor{
		door:          door,
		mqttActor:     mqttActor,
		eventStream:   eventStream,
		behavior:      actor.NewBehavior(),
		stash:         &Stash{},
		logger:        ActorLogger(domain.ACTOR_ID_DOOR_PREFIX+door.Id(), logger),
		openReading:   domain.AbsentReading(),
		closedReading: domain.AbsentReading(),
	}
	act.engine = service.NewDoorStateEngine(time.Duration(door.OpeningDurationSeconds)*time.Second, act.logger)
	act.gate = service.DefaultCommandGate{}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DoorActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DoorActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("door@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.lastPublished = state.engine.State()
		// nudge the transport until every watched entity has reported
		state.scheduler.RequestOnce(missingEntityRetryDelays[0], ctx.Self(), missingEntityTick{})
	case domain.EntityObservation:
		state.logger.Debug("door@default observation",
			zap.String("entity", msg.EntityId), zap.String("value", string(msg.Value)))
		if state.applyObservation(msg) {
			state.evaluate(ctx, time.Now())
		}
	case motionTimeoutTick:
		// the motion window deadline passed without a definitive reading;
		// re-evaluate with unchanged inputs so the stall is detected
		state.logger.Debug("door@default motion timeout")
		state.cancelMotionTimeout = nil
		state.evaluate(ctx, time.Now())
	case missingEntityTick:
		state.onMissingEntityTick(ctx)
	case domain.DoorCommandRequest:
		state.logger.Debug("door@default DoorCommandRequest", zap.String("command", string(msg.Command)))
		state.handleCommand(ctx, msg)
	case domain.GetDoorStateRequest:
		ForRequest(msg).Respond(ctx, domain.GetDoorStateResponse{
			DoorId: state.door.Id(),
			State:  state.engine.State(),
		})
	case domain.GetDoorSnapshotRequest:
		ForRequest(msg).Respond(ctx, domain.GetDoorSnapshotResponse{
			Snapshot: state.snapshot(),
		})
	case domain.ActorHealthRequest:
		state.logger.Debug("door@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DOOR_PREFIX + state.door.Id(),
			Healthy: true,
			State:   string(state.engine.State()),
		})
	case *actor.Stopping:
		if state.cancelMotionTimeout != nil {
			state.cancelMotionTimeout()
			state.cancelMotionTimeout = nil
		}
	default:
		state.logger.Debug("door@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// WaitingToggle holds the door while a toggle pulse is in flight. The command
// response is not sent until the transport confirms or fails the publish.
func (state *DoorActor) WaitingToggle(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActivateToggleResponse:
		pending := state.pendingCommand
		state.pendingCommand = nil
		if pending != nil && pending.replyTo != nil {
			resp := domain.DoorCommandResponse{
				DoorId:   state.door.Id(),
				Command:  pending.command,
				Accepted: !msg.HasResponseError(),
				State:    pending.state,
			}
			resp.ResponseError = msg.GetResponseError()
			ctx.Send(pending.replyTo, resp)
		}
		if msg.HasResponseError() {
			state.logger.Error("door@toggle pulse failed", zap.Error(msg.GetResponseError()))
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("door@toggle stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// applyObservation updates the stored reading for the entity and reports
// whether anything relevant changed.
func (state *DoorActor) applyObservation(obs domain.EntityObservation) bool {
	switch obs.EntityId {
	case state.door.OpenSensor:
		state.openReading = domain.SensorReading{Value: obs.Value, LastChangedAt: obs.At}
		return true
	case state.door.ClosedSensor:
		state.closedReading = domain.SensorReading{Value: obs.Value, LastChangedAt: obs.At}
		return true
	case state.door.ToggleEntity:
		at := obs.At
		state.toggleLastChanged = &at
		// the toggle pulse alone never changes the inferred state
		return false
	default:
		return false
	}
}

func (state *DoorActor) evaluate(ctx actor.Context, now time.Time) {
	res := state.engine.Evaluate(domain.DoorInputs{
		OpenSensor:        state.openReading,
		ClosedSensor:      state.closedReading,
		ToggleLastChanged: state.toggleLastChanged,
	}, now)

	if res.WindowCleared && state.cancelMotionTimeout != nil {
		state.cancelMotionTimeout()
		state.cancelMotionTimeout = nil
	}
	if res.WindowOpened && res.Window != nil {
		if state.cancelMotionTimeout != nil {
			state.cancelMotionTimeout()
		}
		delay := res.Window.ExpiresAt(state.engine.OpeningDuration()).Sub(now)
		if delay < 0 {
			delay = 0
		}
		state.cancelMotionTimeout = state.scheduler.RequestOnce(delay, ctx.Self(), motionTimeoutTick{})
	}

	if res.State != state.lastPublished {
		state.logger.Info("door state changed",
			zap.String("from", string(state.lastPublished)), zap.String("to", string(res.State)))
		state.lastPublished = res.State
		for _, ev := range events.DoorStateToUpdateEvents(state.door.Id(), res.State) {
			state.eventStream.Publish(ev)
		}
	}
}

func (state *DoorActor) handleCommand(ctx actor.Context, msg domain.DoorCommandRequest) {
	current := state.engine.State()
	replyTo := ForRequest(msg).ReplyTo(ctx)
	if !state.gate.Allows(msg.Command, current) {
		state.logger.Info("door command rejected",
			zap.String("command", string(msg.Command)), zap.String("state", string(current)))
		if replyTo != nil {
			ctx.Send(replyTo, domain.DoorCommandResponse{
				DoorId:   state.door.Id(),
				Command:  msg.Command,
				Accepted: false,
				State:    current,
			})
		}
		return
	}

	state.logger.Info("door command accepted",
		zap.String("command", string(msg.Command)), zap.String("state", string(current)))
	state.pendingCommand = &pendingDoorCommand{
		command: msg.Command,
		state:   current,
		replyTo: replyTo,
	}
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActivateToggleRequest{
		EntityId: state.door.ToggleEntity,
	}, 5*time.Second), func(err error) any {
		return domain.ActivateToggleResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
	state.behavior.BecomeStacked(state.WaitingToggle)
}

func (state *DoorActor) onMissingEntityTick(ctx actor.Context) {
	if state.openReading.Value != domain.SensorAbsent && state.closedReading.Value != domain.SensorAbsent {
		return
	}
	state.logger.Warn("door sensors not observed yet",
		zap.String("open_sensor", string(state.openReading.Value)),
		zap.String("closed_sensor", string(state.closedReading.Value)),
		zap.Int("retry", state.retryCount+1))
	ctx.Send(state.mqttActor, domain.SubscribeEntitiesRequest{
		EntityIds: state.door.WatchedEntities(),
	})
	state.retryCount++
	if state.retryCount < len(missingEntityRetryDelays) {
		state.scheduler.RequestOnce(missingEntityRetryDelays[state.retryCount], ctx.Self(), missingEntityTick{})
	} else {
		state.logger.Error("door sensors still unobserved, giving up retries")
	}
}

func (state *DoorActor) snapshot() domain.DoorSnapshot {
	return domain.DoorSnapshot{
		Id:                state.door.Id(),
		State:             state.engine.State(),
		PreviousState:     state.engine.PreviousState(),
		MotionWindow:      state.engine.Window(),
		OpenSensor:        state.openReading,
		ClosedSensor:      state.closedReading,
		ToggleLastChanged: state.toggleLastChanged,
	}
}
