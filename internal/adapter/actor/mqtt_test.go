package actor

import (
	"testing"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/mqtt"
	"github.com/berfenger/hassbridge/internal/util"
	"github.com/berfenger/hassbridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)
	assert.Equal(t, domain.ACTOR_ID_MQTT, resp.Id)

	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "capacity",
		},
		Value:    67,
		Decimals: 0,
	})
	es.Publish(domain.TelemetryReadFailedEvent{})

	result, err = context.RequestFuture(pid, domain.PublishDiscoveryRequest{}, 2*time.Second).Result()
	assert.NoError(t, err)
	assert.IsType(t, domain.PublishDiscoveryResponse{}, result)

	context.Stop(pid)

	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 0, es.Length())

	as.Shutdown()
}

func TestEvent2MQTTMessage(t *testing.T) {
	cfg := util.LoadTestConfig()
	act := NewTestMQTTActor(&cfg, nil, zap.NewNop())
	act.client = mqtt.CreateMQTTClient(&cfg, mqtt.OptsFromConfig(&cfg), nil, nil)

	msg := act.event2MQTTMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "vBat"},
		Value:                  52.314,
		Decimals:               2,
	})
	if assert.NotNil(t, msg) {
		assert.Equal(t, "hassbridge/sensor/vBat/state", msg.topic)
		assert.Equal(t, "52.31", msg.message)
	}

	msg = act.event2MQTTMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "capacity"},
		Value:                  67,
	})
	if assert.NotNil(t, msg) {
		assert.Equal(t, "67", msg.message)
	}

	msg = act.event2MQTTMessage(domain.BridgeStateUpdateEvent{Value: false})
	if assert.NotNil(t, msg) {
		assert.Equal(t, "hassbridge/bridge/state", msg.topic)
		assert.Equal(t, mqtt.MQTT_PAYLOAD_OFFLINE, msg.message)
		assert.True(t, msg.retain)
	}

	assert.Nil(t, act.event2MQTTMessage(domain.TelemetryReadFailedEvent{}))
}
