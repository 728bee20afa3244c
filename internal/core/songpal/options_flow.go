package songpal

import (
	"context"
	"fmt"
	"slices"

	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/port"

	"github.com/guregu/null"
)

type OptionsFlow struct {
	base    flow.Base
	entry   flow.Entry
	scripts port.ScriptCatalog
}

var _ flow.OptionsFlow = (*OptionsFlow)(nil)

func NewOptionsFlow(entry flow.Entry, scripts port.ScriptCatalog) *OptionsFlow {
	return &OptionsFlow{
		entry:   entry,
		scripts: scripts,
	}
}

func (f *OptionsFlow) Base() *flow.Base {
	return &f.base
}

func (f *OptionsFlow) Configure(_ context.Context, stepID string, input map[string]any) (*flow.Result, error) {
	if stepID != "init" {
		return nil, fmt.Errorf("%w: %s", flow.ErrUnknownStep, stepID)
	}
	return f.stepInit(input), nil
}

func (f *OptionsFlow) stepInit(input map[string]any) *flow.Result {
	scripts := f.scriptEntityIDs()
	var errs map[string]string

	if input != nil {
		errs = map[string]string{}

		name, ok := input[CONF_NAME].(string)
		if !ok || name == "" {
			errs[CONF_NAME] = "required key not provided"
		}
		onAction := null.String{}
		if s, ok := input[CONF_ON_ACTION].(string); ok {
			onAction = null.StringFrom(s)
		}
		if onAction.Valid && !slices.Contains(scripts, onAction.String) {
			errs[CONF_ON_ACTION] = "Script not found."
		}

		wol, err := flow.CoerceBool(input[CONF_WOL])
		if err != nil {
			errs[CONF_WOL] = err.Error()
		}

		if len(errs) == 0 {
			return f.base.CreateEntry("", map[string]any{
				CONF_NAME:      name,
				CONF_ON_ACTION: nullableString(onAction),
				CONF_WOL:       wol,
			})
		}
	}

	schema := flow.NewSchema(
		flow.Field{Name: CONF_NAME, Type: flow.FIELD_TYPE_STRING, Required: true},
		flow.Field{Name: CONF_ON_ACTION, Type: flow.FIELD_TYPE_SELECT, Options: scripts, CustomValue: true},
		flow.Field{Name: CONF_WOL, Type: flow.FIELD_TYPE_BOOL, Default: false},
	)
	return f.base.ShowForm("init", schema.WithSuggestedValues(f.entry.Options), errs, nil)
}

func (f *OptionsFlow) scriptEntityIDs() []string {
	if f.scripts == nil {
		return nil
	}
	return f.scripts.ScriptEntityIDs()
}

func nullableString(s null.String) any {
	if !s.Valid {
		return nil
	}
	return s.String
}
