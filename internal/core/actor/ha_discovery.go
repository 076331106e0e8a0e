package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/config"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	mqttActor        *actor.PID
	mqttActorHealthy bool

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:    config,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// wait for the MQTT actor to be up before announcing entities
		state.mqttActorHealthy = false
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if msg.Id == domain.ACTOR_ID_MQTT && msg.Healthy {
			state.mqttActorHealthy = true
		}
		if !state.mqttActorHealthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}

		ctx.Send(state.mqttActor, state.buildDiscoveryRequest())
		state.behavior.Become(state.Done)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) buildDiscoveryRequest() domain.PublishDiscoveryRequest {

	var covers []domain.GenericCover
	var sensors []domain.GenericSensor

	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	for _, door := range state.config.Doors {
		doorDevice := domain.DoorDevice(door.Id(), door.Name)
		doorDevice.ViaDevice = bridgeDevice.Id

		covers = append(covers, domain.DoorCover(doorDevice, door.Id(), door.Name))

		doorSensors := domain.DoorSensors(domain.IdDevice(doorDevice), door.Id(), door.Name)
		sensors = append(sensors, doorSensors...)
	}

	return domain.PublishDiscoveryRequest{
		Covers:  covers,
		Sensors: sensors,
	}
}
