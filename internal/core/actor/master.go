package actor

import (
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/garagedoor2mqtt/internal/adapter/actor"
	"github.com/berfenger/garagedoor2mqtt/internal/config"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	. "github.com/berfenger/garagedoor2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	mqttActor          *actor.PID
	doorActors         map[string]*actor.PID
	entityRouting      map[string][]*actor.PID
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	mqttActorHealthy bool
	doorsHealthy     map[string]bool
	checksExpected   int
	checksReceived   int
	respondTo        *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       &eventstream.EventStream{},
		doorActors:        map[string]*actor.PID{},
		entityRouting:     map[string][]*actor.PID{},
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(state.config.Doors)

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start one door child per configured door
		for _, door := range state.config.Doors {
			doorPID, err := state.startDoorActor(ctx, door)
			if err != nil {
				panic(err)
			}
			state.doorActors[door.Id()] = doorPID
			for _, entityId := range door.WatchedEntities() {
				state.entityRouting[entityId] = append(state.entityRouting[entityId], doorPID)
			}
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.config.Doors)
		state.currentHealthCheck.respondTo = ForRequest(msg).ReplyTo(ctx)
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Door Actor Requests
		for doorId, pid := range state.doorActors {
			doorId := doorId
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      domain.ACTOR_ID_DOOR_PREFIX + doorId,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// cover command from the bridge command topic, route to the right door
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.DoorCommandRequest:
					if pid, ok := state.doorActors[pcmd.DoorId]; ok {
						ctx.Send(pid, pcmd)
					} else {
						state.logger.Warn("master@default command for unknown door", zap.String("door", pcmd.DoorId))
					}
				}
			}
		}
	case domain.EntityObservation:
		// fan out to every door watching this entity
		pids := state.entityRouting[msg.EntityId]
		if len(pids) == 0 {
			state.logger.Debug("master@default observation for unwatched entity", zap.String("entity", msg.EntityId))
			return
		}
		for _, pid := range pids {
			ctx.Send(pid, msg)
		}
	case domain.DoorCommandRequest:
		// command from the HTTP API
		if pid, ok := state.doorActors[msg.DoorId]; ok {
			ctx.RequestWithCustomSender(pid, msg, ctx.Sender())
		} else if ctx.Sender() != nil {
			ctx.Respond(domain.DoorCommandResponse{
				DoorId:   msg.DoorId,
				Command:  msg.Command,
				Accepted: false,
			})
		}
	case domain.GetDoorStateRequest:
		if pid, ok := state.doorActors[msg.DoorId]; ok {
			ctx.RequestWithCustomSender(pid, msg, ctx.Sender())
		} else if ctx.Sender() != nil {
			ctx.Respond(domain.GetDoorStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: fmt.Errorf("unknown door %s", msg.DoorId),
				},
				DoorId: msg.DoorId,
			})
		}
	case domain.GetDoorSnapshotRequest:
		if pid, ok := state.doorActors[msg.DoorId]; ok {
			ctx.RequestWithCustomSender(pid, msg, ctx.Sender())
		} else if ctx.Sender() != nil {
			ctx.Respond(domain.GetDoorSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: fmt.Errorf("unknown door %s", msg.DoorId),
				},
			})
		}
	case *actor.Terminated:
		// if the MQTT child gives up for good, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_MQTT) {
			state.logger.Error("master@default mqtt terminated")
			panic(fmt.Errorf("mqtt actor terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Id == domain.ACTOR_ID_MQTT {
			state.currentHealthCheck.mqttActorHealthy = msg.Healthy
		} else {
			state.currentHealthCheck.doorsHealthy[msg.Id] = msg.Healthy
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// GetDoorActor resolves a spawned door child by door id.
func (state *MasterOfPuppetsActor) GetDoorActor(doorId string) *actor.PID {
	return state.doorActors[doorId]
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startDoorActor(ctx actor.Context, door config.DoorConfig) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	doorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDoorActor(door, state.mqttActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	doorPID, err := ctx.SpawnNamed(doorProps, domain.ACTOR_ID_DOOR_PREFIX+door.Id())
	if err != nil {
		return nil, err
	}

	return doorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset(doors []config.DoorConfig) {
	state.mqttActorHealthy = false
	state.doorsHealthy = map[string]bool{}
	state.checksExpected = len(doors) + 1
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	if !state.mqttActorHealthy {
		return false
	}
	healthyDoors := 0
	for _, healthy := range state.doorsHealthy {
		if healthy {
			healthyDoors++
		}
	}
	return healthyDoors == state.checksExpected-1
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
