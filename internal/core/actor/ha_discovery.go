package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/hassbridge/internal/config"
	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/sensortypes"
	"github.com/berfenger/hassbridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery documents once,
// after the telemetry and MQTT actors report healthy.
type HADiscoveryActor struct {
	config                *config.Config
	behavior              actor.Behavior
	stash                 *actorutil.Stash
	telemetryActor        *actor.PID
	mqttActor             *actor.PID
	telemetryActorHealthy bool
	mqttActorHealthy      bool
	healthyRecv           int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, telemetryActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:         config,
		telemetryActor: telemetryActor,
		mqttActor:      mqttActor,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
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

		// Check telemetry and MQTT actor healthy
		state.healthyRecv = 0
		state.telemetryActorHealthy = false
		state.mqttActorHealthy = false
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_TELEMETRY,
				Healthy: false,
			}
		})
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
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_TELEMETRY:
				state.telemetryActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {
			if state.telemetryActorHealthy && state.mqttActorHealthy {
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.GetStorageInfoRequest{}, 10*time.Second), func(err error) any {
					return domain.GetStorageInfoResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT actor or telemetry actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishDiscoveryResponse:
		if msg.HasResponseError() {
			state.logger.Error("hadiscovery@done publish failed", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Info("hadiscovery@done discovery published")
		}
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetStorageInfoResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetStorageInfoResponse", zap.Any("info", msg.Info))

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors := domain.BridgeSensors(bridgeDevice)

		storageDevice := domain.StorageDevice(msg.Info)
		storageDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, domain.StorageSensors(storageDevice, sensortypes.StorageSensorTypes())...)

		buttons := domain.BridgeButtons(bridgeDevice)

		ctx.Request(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
			Buttons: buttons,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
