package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/garagedoor2mqtt/internal/adapter/actor"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"
	"github.com/berfenger/garagedoor2mqtt/internal/util"
	"github.com/berfenger/garagedoor2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDoorActorInference(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	cfg := util.LoadTestConfig()
	door := cfg.Doors[0]

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := eventstream.EventStream{}

	mqttProps := actor.PropsFromProducer(func() actor.Actor { return adactor.NewTestMQTTActor(&cfg, &es, logger) })
	mqttPID := context.Spawn(mqttProps)

	doorProps := actor.PropsFromProducer(func() actor.Actor { return NewDoorActor(door, mqttPID, &es, logger) })
	doorPID := context.Spawn(doorProps)

	time.Sleep(500 * time.Millisecond)

	// no observations yet
	res, err := context.RequestFuture(doorPID, domain.GetDoorStateRequest{DoorId: door.Id()}, 2*time.Second).Result()
	require.NoError(err)
	stateResp := res.(domain.GetDoorStateResponse)
	assert.Equal(domain.DoorStateUnavailable, stateResp.State)

	// closed switch reports on
	context.Send(doorPID, domain.EntityObservation{EntityId: door.ClosedSensor, Value: domain.SensorOff, At: time.Now()})
	context.Send(doorPID, domain.EntityObservation{EntityId: door.ClosedSensor, Value: domain.SensorOn, At: time.Now()})
	context.Send(doorPID, domain.EntityObservation{EntityId: door.OpenSensor, Value: domain.SensorOff, At: time.Now()})
	time.Sleep(200 * time.Millisecond)

	res, err = context.RequestFuture(doorPID, domain.GetDoorStateRequest{DoorId: door.Id()}, 2*time.Second).Result()
	require.NoError(err)
	assert.Equal(domain.DoorStateClosed, res.(domain.GetDoorStateResponse).State)

	// door leaves the closed switch
	context.Send(doorPID, domain.EntityObservation{EntityId: door.ClosedSensor, Value: domain.SensorOff, At: time.Now()})
	time.Sleep(200 * time.Millisecond)

	res, err = context.RequestFuture(doorPID, domain.GetDoorSnapshotRequest{DoorId: door.Id()}, 2*time.Second).Result()
	require.NoError(err)
	snap := res.(domain.GetDoorSnapshotResponse).Snapshot
	assert.Equal(domain.DoorStateOpening, snap.State)
	assert.NotNil(snap.MotionWindow)

	// door reaches the open switch
	context.Send(doorPID, domain.EntityObservation{EntityId: door.OpenSensor, Value: domain.SensorOn, At: time.Now()})
	time.Sleep(200 * time.Millisecond)

	res, err = context.RequestFuture(doorPID, domain.GetDoorStateRequest{DoorId: door.Id()}, 2*time.Second).Result()
	require.NoError(err)
	assert.Equal(domain.DoorStateOpen, res.(domain.GetDoorStateResponse).State)

	context.Stop(doorPID)
	context.Stop(mqttPID)

	as.Shutdown()
}

func TestDoorActorCommandGate(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	cfg := util.LoadTestConfig()
	door := cfg.Doors[0]

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := eventstream.EventStream{}

	mqttProps := actor.PropsFromProducer(func() actor.Actor { return adactor.NewTestMQTTActor(&cfg, &es, logger) })
	mqttPID := context.Spawn(mqttProps)

	doorProps := actor.PropsFromProducer(func() actor.Actor { return NewDoorActor(door, mqttPID, &es, logger) })
	doorPID := context.Spawn(doorProps)

	time.Sleep(500 * time.Millisecond)

	// drive the door into a sensed closed state
	context.Send(doorPID, domain.EntityObservation{EntityId: door.OpenSensor, Value: domain.SensorOff, At: time.Now()})
	context.Send(doorPID, domain.EntityObservation{EntityId: door.ClosedSensor, Value: domain.SensorOn, At: time.Now()})
	time.Sleep(200 * time.Millisecond)

	// open command is allowed while closed
	res, err := context.RequestFuture(doorPID, domain.DoorCommandRequest{
		DoorId:  door.Id(),
		Command: domain.DoorCommandOpen,
	}, 2*time.Second).Result()
	require.NoError(err)
	cmdResp := res.(domain.DoorCommandResponse)
	assert.True(cmdResp.Accepted)
	assert.Equal(domain.DoorStateClosed, cmdResp.State)

	// close command is rejected while closed
	res, err = context.RequestFuture(doorPID, domain.DoorCommandRequest{
		DoorId:  door.Id(),
		Command: domain.DoorCommandClose,
	}, 2*time.Second).Result()
	require.NoError(err)
	cmdResp = res.(domain.DoorCommandResponse)
	assert.False(cmdResp.Accepted)

	// stop command is rejected while not moving
	res, err = context.RequestFuture(doorPID, domain.DoorCommandRequest{
		DoorId:  door.Id(),
		Command: domain.DoorCommandStop,
	}, 2*time.Second).Result()
	require.NoError(err)
	assert.False(res.(domain.DoorCommandResponse).Accepted)

	context.Stop(doorPID)
	context.Stop(mqttPID)

	as.Shutdown()
}
