package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/hassbridge/internal/config"
	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/events"
	. "github.com/berfenger/hassbridge/internal/util/actorutil"
	"github.com/berfenger/hassbridge/pkg/growatt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// MonitorActor polls the telemetry actor and publishes one sensor update per
// known field on the event stream.
type MonitorActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	telemetryActor *actor.PID
	config         *config.Config
	eventStream    *eventstream.EventStream
	info           *growatt.StorageInfo
	lastReadFailed bool

	logger *zap.Logger
}

type monitorTick struct {
}

func NewMonitorActor(config *config.Config, telemetryActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *MonitorActor {
	act := &MonitorActor{
		config:         config,
		telemetryActor: telemetryActor,
		behavior:       actor.NewBehavior(),
		stash:          &Stash{},
		logger:         ActorLogger(domain.ACTOR_ID_MONITOR, logger),
		eventStream:    eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MonitorActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MonitorActor) pollInterval() time.Duration {
	return time.Duration(state.config.MonitorConfig.PollIntervalMillis) * time.Millisecond
}

func (state *MonitorActor) requestTimeout() time.Duration {
	timeout := state.pollInterval()
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return timeout
}

func (state *MonitorActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("monitor@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.GetStorageInfoRequest{}, state.requestTimeout()), func(err error) any {
			return domain.GetStorageInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingInfoReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("monitor@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MonitorActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetStorageInfoResponse:
		if msg.HasResponseError() {
			// keep polling, info is only logged
			state.logger.Error("monitor@waitingInfo GetStorageInfoResponse", zap.Error(msg.GetResponseError()))
		} else {
			state.info = msg.Info
			state.logger.Info("monitor@waitingInfo storage found",
				zap.String("manufacturer", msg.Info.Manufacturer),
				zap.String("model", msg.Info.Model),
				zap.String("version", msg.Info.Version))
		}
		state.eventStream.Publish(events.BridgeStateEvent(true))
		if state.pollInterval() > 0 {
			ctx.Send(ctx.Self(), monitorTick{})
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MONITOR,
			Healthy: true,
			State:   "waitingInfo",
		})
	default:
		state.logger.Debug("monitor@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MonitorActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("monitor@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MONITOR,
			Healthy: true,
			State:   "idle",
		})
	case monitorTick:
		state.logger.Debug("monitor@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.GetTelemetryRequest{}, state.requestTimeout()), func(err error) any {
			return domain.GetTelemetryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), monitorTick{})
		state.behavior.BecomeStacked(state.WaitingTelemetryReceive)
	default:
		state.logger.Debug("monitor@default: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MonitorActor) WaitingTelemetryReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetTelemetryResponse:
		if msg.HasResponseError() {
			state.logger.Error("monitor@waiting GetTelemetryResponse error", zap.Error(msg.GetResponseError()))
			state.eventStream.Publish(domain.TelemetryReadFailedEvent{Error: msg.GetResponseError()})
			state.lastReadFailed = true
		} else {
			state.logger.Debug("monitor@waiting GetTelemetryResponse", zap.Int("fields", len(msg.Telemetry)))
			if state.lastReadFailed {
				state.logger.Info("monitor@waiting telemetry read recovered")
				state.lastReadFailed = false
			}
			for _, ev := range events.TelemetryToUpdateEvents(msg.Telemetry, state.logger) {
				state.eventStream.Publish(ev)
			}
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case monitorTick:
		// a read is still running, skip this tick but keep the schedule
		state.logger.Debug("monitor@waiting tick skipped")
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), monitorTick{})
	default:
		state.logger.Debug("monitor@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}
