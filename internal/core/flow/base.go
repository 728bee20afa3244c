package flow

import (
	"context"
	"reflect"
	"slices"
)

// Context describes how a flow was started.
type Context struct {
	Source            string            `json:"source"`
	UniqueID          string            `json:"unique_id,omitempty"`
	TitlePlaceholders map[string]string `json:"title_placeholders,omitempty"`
}

type Flow interface {
	Base() *Base
	Configure(ctx context.Context, stepID string, input map[string]any) (*Result, error)
}

type ConfigFlow interface {
	Flow
	// Start runs the step named after the flow source.
	Start(ctx context.Context, input map[string]any, discovery *SsdpServiceInfo) (*Result, error)
}

type OptionsFlow interface {
	Flow
}

// Handler builds the flows of one integration domain.
type Handler interface {
	Domain() string
	NewConfigFlow() ConfigFlow
	// NewOptionsFlow returns nil when the domain has no options.
	NewOptionsFlow(entry Entry) OptionsFlow
}

// Base carries the state every flow shares and the helpers steps use to
// build results. Helpers that may abort return nil when the step goes on.
type Base struct {
	handler string
	flowID  string
	context Context
	entries EntryReader
	// unique ids claimed by other live flows of the same handler
	peers []string
}

func (b *Base) Init(handler, flowID string, context Context, entries EntryReader) {
	b.handler = handler
	b.flowID = flowID
	b.context = context
	b.entries = entries
}

func (b *Base) SetPeerUniqueIDs(ids []string) {
	b.peers = ids
}

func (b *Base) Handler() string {
	return b.handler
}

func (b *Base) FlowID() string {
	return b.flowID
}

func (b *Base) Context() *Context {
	return &b.context
}

func (b *Base) Source() string {
	return b.context.Source
}

func (b *Base) UniqueID() string {
	return b.context.UniqueID
}

func (b *Base) AbortEntriesMatch(match map[string]any) *Result {
	for _, entry := range b.currentEntries() {
		matches := true
		for k, v := range match {
			if ev, ok := entry.Data[k]; !ok || !reflect.DeepEqual(ev, v) {
				matches = false
				break
			}
		}
		if matches {
			return b.Abort(REASON_ALREADY_CONFIGURED)
		}
	}
	return nil
}

func (b *Base) SetUniqueID(uniqueID string) *Result {
	if uniqueID != "" && slices.Contains(b.peers, uniqueID) {
		return b.Abort(REASON_ALREADY_IN_PROGRESS)
	}
	b.context.UniqueID = uniqueID
	return nil
}

func (b *Base) AbortIfUniqueIDConfigured() *Result {
	if b.context.UniqueID == "" {
		return nil
	}
	for _, entry := range b.currentEntries() {
		if entry.UniqueID == b.context.UniqueID {
			return b.Abort(REASON_ALREADY_CONFIGURED)
		}
	}
	return nil
}

func (b *Base) ShowForm(stepID string, schema *Schema, errors map[string]string, placeholders map[string]string) *Result {
	return &Result{
		Type:                    RESULT_TYPE_FORM,
		FlowID:                  b.flowID,
		Handler:                 b.handler,
		StepID:                  stepID,
		Schema:                  schema,
		Errors:                  errors,
		DescriptionPlaceholders: placeholders,
	}
}

func (b *Base) Abort(reason string) *Result {
	return &Result{
		Type:    RESULT_TYPE_ABORT,
		FlowID:  b.flowID,
		Handler: b.handler,
		Reason:  reason,
	}
}

func (b *Base) CreateEntry(title string, data map[string]any) *Result {
	return &Result{
		Type:    RESULT_TYPE_CREATE_ENTRY,
		FlowID:  b.flowID,
		Handler: b.handler,
		Title:   title,
		Data:    data,
	}
}

func (b *Base) currentEntries() []Entry {
	if b.entries == nil {
		return nil
	}
	return b.entries.Entries(b.handler)
}
