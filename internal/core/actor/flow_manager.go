package actor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/port"
	. "github.com/berfenger/hassbridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFlowNotFound        = errors.New("flow not found")
	ErrUnknownHandler      = errors.New("unknown flow handler")
	ErrOptionsNotSupported = errors.New("handler has no options flow")
	ErrStepFailed          = errors.New("flow step did not complete")
)

const (
	DEFAULT_STEP_TIMEOUT = 10 * time.Second
	DEFAULT_SCAN_WAIT    = 2 * time.Second
)

type FlowManagerConfig struct {
	StepTimeout time.Duration
	ScanWait    time.Duration
	// handler that receives ssdp flows started by discovery scans
	DiscoveryHandler string
}

type FlowManagerActor struct {
	ActorWithStates
	stash       *Stash
	handlers    map[string]flow.Handler
	entries     flow.EntryRegistry
	scanner     port.DiscoveryScanner
	eventStream *eventstream.EventStream
	config      FlowManagerConfig
	flows       map[string]*liveFlow

	logger *zap.Logger
}

type liveFlow struct {
	id      string
	handler string
	flow    flow.Flow
	options bool
	entryID string
	created time.Time
	last    *flow.Result
}

type stepDone struct {
	flowID  string
	result  *flow.Result
	err     error
	drop    bool
	replyTo *actor.PID
}

type scanDone struct {
	found   []flow.SsdpServiceInfo
	err     error
	replyTo *actor.PID
}

func NewFlowManagerActor(handlers []flow.Handler, entries flow.EntryRegistry, scanner port.DiscoveryScanner,
	eventStream *eventstream.EventStream, config FlowManagerConfig, logger *zap.Logger) *FlowManagerActor {
	if config.StepTimeout <= 0 {
		config.StepTimeout = DEFAULT_STEP_TIMEOUT
	}
	if config.ScanWait <= 0 {
		config.ScanWait = DEFAULT_SCAN_WAIT
	}
	hs := make(map[string]flow.Handler, len(handlers))
	for _, h := range handlers {
		hs[h.Domain()] = h
	}
	act := &FlowManagerActor{
		stash:       &Stash{},
		handlers:    hs,
		entries:     entries,
		scanner:     scanner,
		eventStream: eventStream,
		config:      config,
		flows:       map[string]*liveFlow{},
		logger:      ActorLogger(domain.ACTOR_ID_FLOW_MANAGER, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(FMIdleState{actor: act})
	return act
}

func (state *FlowManagerActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Idle state

type FMIdleState struct {
	ActorState
	actor *FlowManagerActor
}

func (state FMIdleState) Name() string {
	return "idle"
}

func (state FMIdleState) Receive(ctx actor.Context) {
	a := state.actor
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Debug("flowmanager@idle started", zap.Int("handlers", len(a.handlers)))
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_FLOW_MANAGER,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.StartFlowRequest:
		a.logger.Debug("flowmanager@idle StartFlowRequest", zap.String("handler", msg.Handler), zap.String("source", msg.Source))
		a.startFlow(ctx, msg)
	case domain.ConfigureFlowRequest:
		a.logger.Debug("flowmanager@idle ConfigureFlowRequest", zap.String("flow_id", msg.FlowID))
		a.configureFlow(ctx, msg.FlowID, msg.Input, false, ForRequest(msg).ReplyTo(ctx))
	case domain.ConfigureOptionsFlowRequest:
		a.logger.Debug("flowmanager@idle ConfigureOptionsFlowRequest", zap.String("flow_id", msg.FlowID))
		a.configureFlow(ctx, msg.FlowID, msg.Input, true, ForRequest(msg).ReplyTo(ctx))
	case domain.GetFlowRequest:
		lf, ok := a.flows[msg.FlowID]
		if !ok {
			ForRequest(msg).Respond(ctx, flowError(ErrFlowNotFound))
			return
		}
		ForRequest(msg).Respond(ctx, domain.FlowResponse{Result: lf.last})
	case domain.AbortFlowRequest:
		lf, ok := a.flows[msg.FlowID]
		if !ok {
			ForRequest(msg).Respond(ctx, flowError(ErrFlowNotFound))
			return
		}
		delete(a.flows, msg.FlowID)
		a.logger.Info("flowmanager@idle flow aborted", zap.String("flow_id", lf.id), zap.String("handler", lf.handler))
		ForRequest(msg).Respond(ctx, domain.FlowResponse{})
	case domain.StartOptionsFlowRequest:
		a.logger.Debug("flowmanager@idle StartOptionsFlowRequest", zap.String("entry_id", msg.EntryID))
		a.startOptionsFlow(ctx, msg)
	case domain.ListFlowsRequest:
		ForRequest(msg).Respond(ctx, domain.ListFlowsResponse{Flows: a.progress(msg.Handler)})
	case domain.ListEntriesRequest:
		ForRequest(msg).Respond(ctx, domain.ListEntriesResponse{Entries: a.entries.Entries(msg.Domain)})
	case domain.RemoveEntryRequest:
		err := a.entries.Remove(msg.EntryID)
		if err == nil {
			for id, lf := range a.flows {
				if lf.options && lf.entryID == msg.EntryID {
					delete(a.flows, id)
				}
			}
			a.logger.Info("flowmanager@idle entry removed", zap.String("entry_id", msg.EntryID))
		}
		ForRequest(msg).Respond(ctx, domain.RemoveEntryResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		})
	case domain.DiscoveryScanRequest:
		a.logger.Debug("flowmanager@idle DiscoveryScanRequest")
		a.scan(ctx, ForRequest(msg).ReplyTo(ctx))
	case *actor.Stopping:
		a.logger.Debug("flowmanager@idle stopping", zap.Int("live_flows", len(a.flows)))
	default:
		a.logger.Debug("flowmanager@idle unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Running state, one step or scan in flight

type FMRunningState struct {
	ActorState
	actor *FlowManagerActor
}

func (state FMRunningState) Name() string {
	return "running"
}

func (state FMRunningState) Receive(ctx actor.Context) {
	a := state.actor
	switch msg := ctx.Message().(type) {
	case stepDone:
		a.logger.Debug("flowmanager@running stepDone", zap.String("flow_id", msg.flowID))
		a.finishStep(ctx, msg)
		a.UnbecomeStacked()
		a.stash.UnstashAll(ctx)
	case scanDone:
		a.logger.Debug("flowmanager@running scanDone", zap.Int("found", len(msg.found)))
		a.finishScan(ctx, msg)
		a.UnbecomeStacked()
		a.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_FLOW_MANAGER,
			Healthy: true,
			State:   state.Name(),
		})
	default:
		a.logger.Debug("flowmanager@running stash", zap.String("type", fmt.Sprintf("%T", msg)))
		a.stash.Stash(ctx, msg)
	}
}

func (a *FlowManagerActor) startFlow(ctx actor.Context, msg domain.StartFlowRequest) {
	replyTo := ForRequest(msg).ReplyTo(ctx)
	h, ok := a.handlers[msg.Handler]
	if !ok {
		a.reply(ctx, replyTo, flowError(fmt.Errorf("%w: %s", ErrUnknownHandler, msg.Handler)))
		return
	}
	source := msg.Source
	if source == "" {
		source = flow.SOURCE_USER
	}

	cf := h.NewConfigFlow()
	lf := &liveFlow{
		id:      uuid.NewString(),
		handler: h.Domain(),
		flow:    cf,
		created: time.Now(),
	}
	cf.Base().Init(lf.handler, lf.id, flow.Context{Source: source}, a.entries)
	a.flows[lf.id] = lf

	input := msg.Input
	discovery := msg.Discovery
	a.runStep(ctx, lf, true, replyTo, func(stepCtx context.Context) (*flow.Result, error) {
		return cf.Start(stepCtx, input, discovery)
	})
}

func (a *FlowManagerActor) startOptionsFlow(ctx actor.Context, msg domain.StartOptionsFlowRequest) {
	replyTo := ForRequest(msg).ReplyTo(ctx)
	entry, ok := a.entries.Get(msg.EntryID)
	if !ok {
		a.reply(ctx, replyTo, flowError(flow.ErrEntryNotFound))
		return
	}
	h, ok := a.handlers[entry.Domain]
	if !ok {
		a.reply(ctx, replyTo, flowError(fmt.Errorf("%w: %s", ErrUnknownHandler, entry.Domain)))
		return
	}
	of := h.NewOptionsFlow(entry)
	if of == nil {
		a.reply(ctx, replyTo, flowError(fmt.Errorf("%w: %s", ErrOptionsNotSupported, entry.Domain)))
		return
	}
	lf := &liveFlow{
		id:      uuid.NewString(),
		handler: h.Domain(),
		flow:    of,
		options: true,
		entryID: entry.EntryID,
		created: time.Now(),
	}
	of.Base().Init(lf.handler, lf.id, flow.Context{Source: flow.SOURCE_OPTIONS}, a.entries)
	a.flows[lf.id] = lf

	a.runStep(ctx, lf, true, replyTo, func(stepCtx context.Context) (*flow.Result, error) {
		return of.Configure(stepCtx, "init", nil)
	})
}

// configureFlow feeds input to the step the flow is waiting on. Input is
// validated against the form last shown.
func (a *FlowManagerActor) configureFlow(ctx actor.Context, flowID string, input map[string]any, options bool, replyTo *actor.PID) {
	lf, ok := a.flows[flowID]
	if !ok || lf.options != options || lf.last == nil {
		a.reply(ctx, replyTo, flowError(ErrFlowNotFound))
		return
	}
	stepID := lf.last.StepID
	if input != nil && lf.last.Schema != nil {
		validated, err := lf.last.Schema.Validate(input)
		if err != nil {
			a.reply(ctx, replyTo, flowError(err))
			return
		}
		input = validated
	}
	a.runStep(ctx, lf, false, replyTo, func(stepCtx context.Context) (*flow.Result, error) {
		return lf.flow.Configure(stepCtx, stepID, input)
	})
}

func (a *FlowManagerActor) runStep(ctx actor.Context, lf *liveFlow, first bool, replyTo *actor.PID,
	step func(context.Context) (*flow.Result, error)) {
	lf.flow.Base().SetPeerUniqueIDs(a.peerUniqueIDs(lf))
	timeout := a.config.StepTimeout

	NewBackgroundTask(ctx, func() (*stepDone, error) {
		stepCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := step(stepCtx)
		return &stepDone{
			flowID:  lf.id,
			result:  result,
			err:     err,
			drop:    first && err != nil,
			replyTo: replyTo,
		}, nil
	}).Recover(func(err error) stepDone {
		return stepDone{
			flowID:  lf.id,
			err:     fmt.Errorf("%w: %w", ErrStepFailed, err),
			drop:    true,
			replyTo: replyTo,
		}
	}).WithTimeout(timeout + time.Second).PipeTo(ctx.Self())
	a.BecomeStacked(FMRunningState{actor: a})
}

func (a *FlowManagerActor) finishStep(ctx actor.Context, msg stepDone) {
	lf, ok := a.flows[msg.flowID]
	if !ok {
		a.reply(ctx, msg.replyTo, flowError(ErrFlowNotFound))
		return
	}
	if msg.err != nil || msg.result == nil {
		err := msg.err
		if err == nil {
			err = ErrStepFailed
		}
		a.logger.Error("flowmanager@running step error", zap.String("flow_id", lf.id), zap.String("handler", lf.handler), zap.Error(err))
		if msg.drop {
			delete(a.flows, lf.id)
		}
		a.reply(ctx, msg.replyTo, flowError(err))
		return
	}

	result := msg.result
	if result.Done() {
		delete(a.flows, lf.id)
	} else {
		lf.last = result
	}

	if result.Type == flow.RESULT_TYPE_CREATE_ENTRY {
		if err := a.storeResult(lf, result); err != nil {
			a.logger.Error("flowmanager@running could not store entry", zap.String("flow_id", lf.id), zap.Error(err))
			a.reply(ctx, msg.replyTo, flowError(err))
			return
		}
	}

	base := lf.flow.Base()
	a.logger.Info("flowmanager@running step result",
		zap.String("flow_id", lf.id),
		zap.String("handler", lf.handler),
		zap.String("source", base.Source()),
		zap.String("type", string(result.Type)),
		zap.String("step_id", result.StepID),
		zap.String("reason", result.Reason))
	if a.eventStream != nil {
		a.eventStream.Publish(domain.FlowResultEvent{
			Handler: lf.handler,
			Source:  base.Source(),
			StepID:  result.StepID,
			Type:    string(result.Type),
			Reason:  result.Reason,
		})
	}
	a.reply(ctx, msg.replyTo, domain.FlowResponse{Result: result})
}

func (a *FlowManagerActor) storeResult(lf *liveFlow, result *flow.Result) error {
	if lf.options {
		if err := a.entries.UpdateOptions(lf.entryID, result.Data); err != nil {
			return err
		}
		result.EntryID = lf.entryID
		return nil
	}
	base := lf.flow.Base()
	entry := flow.Entry{
		EntryID:   uuid.NewString(),
		Domain:    lf.handler,
		Title:     result.Title,
		Data:      result.Data,
		Options:   map[string]any{},
		UniqueID:  base.UniqueID(),
		Source:    base.Source(),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.entries.Add(entry); err != nil {
		return err
	}
	result.EntryID = entry.EntryID
	return nil
}

// progress lists the config flows waiting on input, oldest first. Options
// flows are reached through their entry and are left out.
func (a *FlowManagerActor) progress(handler string) []flow.Progress {
	live := make([]*liveFlow, 0, len(a.flows))
	for _, lf := range a.flows {
		if lf.options || lf.last == nil || (handler != "" && lf.handler != handler) {
			continue
		}
		live = append(live, lf)
	}
	slices.SortFunc(live, func(x, y *liveFlow) int {
		if c := x.created.Compare(y.created); c != 0 {
			return c
		}
		return cmp.Compare(x.id, y.id)
	})

	out := make([]flow.Progress, 0, len(live))
	for _, lf := range live {
		fctx := *lf.flow.Base().Context()
		fctx.TitlePlaceholders = maps.Clone(fctx.TitlePlaceholders)
		out = append(out, flow.Progress{
			FlowID:  lf.id,
			Handler: lf.handler,
			Context: fctx,
			StepID:  lf.last.StepID,
			Last:    lf.last,
		})
	}
	return out
}

// peerUniqueIDs lists the unique ids held by the other live config flows of
// the same handler.
func (a *FlowManagerActor) peerUniqueIDs(self *liveFlow) []string {
	var ids []string
	for _, lf := range a.flows {
		if lf == self || lf.options || lf.handler != self.handler {
			continue
		}
		if id := lf.flow.Base().UniqueID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (a *FlowManagerActor) scan(ctx actor.Context, replyTo *actor.PID) {
	if a.scanner == nil || a.config.DiscoveryHandler == "" {
		a.reply(ctx, replyTo, domain.DiscoveryScanResponse{})
		return
	}
	wait := a.config.ScanWait
	NewBackgroundTask(ctx, func() (*scanDone, error) {
		scanCtx, cancel := context.WithTimeout(context.Background(), wait+a.config.StepTimeout)
		defer cancel()
		found, err := a.scanner.Scan(scanCtx, wait)
		return &scanDone{found: found, err: err, replyTo: replyTo}, nil
	}).Recover(func(err error) scanDone {
		return scanDone{err: err, replyTo: replyTo}
	}).WithTimeout(wait + a.config.StepTimeout + time.Second).PipeTo(ctx.Self())
	a.BecomeStacked(FMRunningState{actor: a})
}

// finishScan starts one ssdp flow per discovered device. Those flows answer
// nobody. Clients find them with ListFlowsRequest.
func (a *FlowManagerActor) finishScan(ctx actor.Context, msg scanDone) {
	if msg.err != nil {
		a.logger.Error("flowmanager@running discovery scan failed", zap.Error(msg.err))
		a.reply(ctx, msg.replyTo, domain.DiscoveryScanResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: msg.err},
		})
		return
	}
	for i := range msg.found {
		info := msg.found[i]
		ctx.Send(ctx.Self(), domain.StartFlowRequest{
			Handler:   a.config.DiscoveryHandler,
			Source:    flow.SOURCE_SSDP,
			Discovery: &info,
		})
	}
	a.reply(ctx, msg.replyTo, domain.DiscoveryScanResponse{Found: len(msg.found)})
}

func (a *FlowManagerActor) reply(ctx actor.Context, replyTo *actor.PID, msg any) {
	if replyTo != nil {
		ctx.Send(replyTo, msg)
	}
}

func flowError(err error) domain.FlowResponse {
	return domain.FlowResponse{
		ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
	}
}
