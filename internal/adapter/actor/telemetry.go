package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/port"
	"github.com/berfenger/hassbridge/internal/util/actorutil"
	"github.com/berfenger/hassbridge/pkg/growatt"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const DEFAULT_READ_TIMEOUT = 5 * time.Second

// TelemetryActor serializes access to the storage telemetry source. One read
// is in flight at a time; requests arriving meanwhile are stashed.
type TelemetryActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	source      port.StorageTelemetrySource
	readTimeout time.Duration
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewTelemetryActor(source port.StorageTelemetrySource, readTimeout time.Duration, logger *zap.Logger) *TelemetryActor {
	if readTimeout <= 0 {
		readTimeout = DEFAULT_READ_TIMEOUT
	}
	act := &TelemetryActor{
		source:      source,
		readTimeout: readTimeout,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *TelemetryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *TelemetryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("telemetry@starting started")
		if err := state.source.Open(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.close()
	default:
		state.logger.Debug("telemetry@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("telemetry@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetStorageInfoRequest:
		state.logger.Debug("telemetry@default: GetStorageInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getStorageInfo),
			mapTaskResult[domain.GetStorageInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetStorageInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.readTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingSource)
	case domain.GetTelemetryRequest:
		state.logger.Debug("telemetry@default: GetTelemetryRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getTelemetry),
			mapTaskResult[domain.GetTelemetryResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetTelemetryResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.readTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingSource)
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("telemetry@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *TelemetryActor) WaitingSource(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("telemetry@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("telemetry@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) getStorageInfo() (*domain.GetStorageInfoResponse, error) {
	info, err := state.source.GetInfo()
	if err != nil {
		state.logReadError("telemetry: could not read storage info", err)
		return nil, err
	}
	return &domain.GetStorageInfoResponse{Info: info}, nil
}

func (state *TelemetryActor) getTelemetry() (*domain.GetTelemetryResponse, error) {
	telemetry, err := state.source.ReadTelemetry()
	if err != nil {
		state.logReadError("telemetry: could not read telemetry", err)
		return nil, err
	}
	if telemetry == nil {
		telemetry = growatt.Telemetry{}
	}
	return &domain.GetTelemetryResponse{Telemetry: telemetry}, nil
}

// Cloud API rate limiting is expected under short poll intervals.
func (state *TelemetryActor) logReadError(msg string, err error) {
	if growatt.IsRateLimit(err) {
		state.logger.Warn(msg, zap.Error(err), zap.Bool("rate_limited", true))
		return
	}
	state.logger.Error(msg, zap.Error(err))
}

func (state *TelemetryActor) close() {
	if state.source != nil {
		if err := state.source.Close(); err != nil {
			state.logger.Warn("telemetry: close failed", zap.Error(err))
		}
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
