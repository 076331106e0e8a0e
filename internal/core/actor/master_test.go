package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/garagedoor2mqtt/internal/adapter/actor"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorObservationRouting(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	door := cfg.Doors[0]
	logger := zap.Must(zap.NewDevelopment())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	require.NoError(err)

	time.Sleep(1 * time.Second)

	// observations reach the door through the master
	context.Send(pid, domain.EntityObservation{EntityId: door.OpenSensor, Value: domain.SensorOff, At: time.Now()})
	context.Send(pid, domain.EntityObservation{EntityId: door.ClosedSensor, Value: domain.SensorOn, At: time.Now()})
	time.Sleep(500 * time.Millisecond)

	res, err := context.RequestFuture(pid, domain.GetDoorStateRequest{DoorId: door.Id()}, 5*time.Second).Result()
	require.NoError(err)
	stateResp := res.(domain.GetDoorStateResponse)
	assert.Equal(domain.DoorStateClosed, stateResp.State)
	assert.Equal(door.Id(), stateResp.DoorId)

	// unknown door id fails fast
	res, err = context.RequestFuture(pid, domain.GetDoorStateRequest{DoorId: "nope"}, 5*time.Second).Result()
	require.NoError(err)
	assert.True(res.(domain.GetDoorStateResponse).HasResponseError())

	context.Stop(pid)

	as.Shutdown()
}
