package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/hassbridge/internal/adapter/actor"
	"github.com/berfenger/hassbridge/internal/config"
	"github.com/berfenger/hassbridge/internal/core/domain"
	. "github.com/berfenger/hassbridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type TelemetryActorProvider func() *adactor.TelemetryActor

type FlowManagerActorProvider func(*eventstream.EventStream) *FlowManagerActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck     healthCheckResult
	eventStream            *eventstream.EventStream
	telemetryActor         *actor.PID
	mqttActor              *actor.PID
	monitorActor           *actor.PID
	flowManagerActor       *actor.PID
	telemetryActorProvider TelemetryActorProvider
	mqttActorProvider      MQTTActorProvider
	flowManagerProvider    FlowManagerActorProvider
	logger                 *zap.Logger
}

type healthCheckResult struct {
	telemetryActorHealthy bool
	mqttActorHealthy      bool
	monitorActorHealthy   bool
	checksReceived        int
	respondTo             *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, eventStream *eventstream.EventStream, telemetryActorProvider TelemetryActorProvider,
	mqttActorProvider MQTTActorProvider, flowManagerProvider FlowManagerActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	if eventStream == nil {
		eventStream = &eventstream.EventStream{}
	}
	act := &MasterOfPuppetsActor{
		config:                 config,
		behavior:               actor.NewBehavior(),
		stash:                  &Stash{},
		logger:                 ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:            eventStream,
		telemetryActorProvider: telemetryActorProvider,
		mqttActorProvider:      mqttActorProvider,
		flowManagerProvider:    flowManagerProvider,
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
		state.currentHealthCheck.reset()

		// start telemetry child
		telemetryActorPID, err := state.startTelemetryActor(ctx)
		if err != nil {
			panic(err)
		}
		state.telemetryActor = telemetryActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start monitor child
		monitorActorPID, err := state.startMonitorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.monitorActor = monitorActorPID

		// start flow manager child
		if state.flowManagerProvider != nil {
			flowManagerPID, err := state.startFlowManagerActor(ctx)
			if err != nil {
				panic(err)
			}
			state.flowManagerActor = flowManagerPID
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
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Telemetry Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_TELEMETRY,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Monitor Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.monitorActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MONITOR,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.Error(err))
				return
			}
			switch pcmd := cmd.(type) {
			case domain.DiscoveryScanRequest:
				state.forwardToFlowManager(ctx, pcmd)
			}
		}
	case domain.StartFlowRequest, domain.ConfigureFlowRequest, domain.GetFlowRequest, domain.AbortFlowRequest,
		domain.StartOptionsFlowRequest, domain.ConfigureOptionsFlowRequest, domain.ListFlowsRequest, domain.ListEntriesRequest,
		domain.RemoveEntryRequest, domain.DiscoveryScanRequest:
		state.forwardToFlowManager(ctx, msg)
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_TELEMETRY) {
			state.logger.Error("master@default telemetry error")
			panic(errors.New("telemetry terminated"))
		}
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// forwardToFlowManager keeps the original sender so the flow manager answers
// the caller directly.
func (state *MasterOfPuppetsActor) forwardToFlowManager(ctx actor.Context, msg any) {
	if state.flowManagerActor == nil {
		state.logger.Warn("master@default no flow manager", zap.String("type", fmt.Sprintf("%T", msg)))
		return
	}
	if ctx.Sender() != nil {
		ctx.RequestWithCustomSender(state.flowManagerActor, msg, ctx.Sender())
	} else {
		ctx.Send(state.flowManagerActor, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_TELEMETRY:
				state.currentHealthCheck.telemetryActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.currentHealthCheck.mqttActorHealthy = true
			case domain.ACTOR_ID_MONITOR:
				state.currentHealthCheck.monitorActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
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

func (state *MasterOfPuppetsActor) startTelemetryActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return state.telemetryActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(telemetryProps, domain.ACTOR_ID_TELEMETRY)
}

func (state *MasterOfPuppetsActor) startMonitorActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	monitorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(&state.config, state.telemetryActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(monitorProps, domain.ACTOR_ID_MONITOR)
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.telemetryActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func (state *MasterOfPuppetsActor) startFlowManagerActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	flowManagerProps := actor.PropsFromProducer(func() actor.Actor {
		return state.flowManagerProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(flowManagerProps, domain.ACTOR_ID_FLOW_MANAGER)
}

func (state *healthCheckResult) reset() {
	state.telemetryActorHealthy = false
	state.mqttActorHealthy = false
	state.monitorActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.telemetryActorHealthy && state.mqttActorHealthy && state.monitorActorHealthy
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
