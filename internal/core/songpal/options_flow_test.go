package songpal

import (
	"context"
	"testing"

	"github.com/berfenger/hassbridge/internal/core/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticScripts []string

func (s staticScripts) ScriptEntityIDs() []string {
	return s
}

func newTestOptionsFlow(options map[string]any) *OptionsFlow {
	entry := flow.Entry{
		EntryID: "e1",
		Domain:  DOMAIN,
		Title:   "Bar",
		Data:    map[string]any{CONF_NAME: "Bar", CONF_ENDPOINT: testEndpoint},
		Options: options,
	}
	f := NewOptionsFlow(entry, staticScripts{"script.tv_on", "script.amp_on"})
	f.Base().Init(DOMAIN, "opt-1", flow.Context{Source: flow.SOURCE_OPTIONS}, nil)
	return f
}

func TestOptionsFormSuggestsCurrentOptions(t *testing.T) {
	assert := assert.New(t)

	f := newTestOptionsFlow(map[string]any{CONF_NAME: "Bar", CONF_WOL: true})
	res, err := f.Configure(context.Background(), "init", nil)
	require.NoError(t, err)

	assert.Equal(flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal("init", res.StepID)
	assert.Empty(res.Errors)
	require.Len(t, res.Schema.Fields, 3)

	name := res.Schema.Fields[0]
	assert.True(name.Required)
	assert.Equal("Bar", name.Suggested)

	action := res.Schema.Fields[1]
	assert.Equal(flow.FIELD_TYPE_SELECT, action.Type)
	assert.False(action.Required)
	assert.Nil(action.Default)
	assert.Equal([]string{"script.tv_on", "script.amp_on"}, action.Options)

	wol := res.Schema.Fields[2]
	assert.Equal(false, wol.Default)
	assert.Equal(true, wol.Suggested)
}

func TestOptionsCreateEntry(t *testing.T) {
	assert := assert.New(t)

	f := newTestOptionsFlow(nil)
	res, err := f.Configure(context.Background(), "init", map[string]any{
		CONF_NAME:      "Bar",
		CONF_ON_ACTION: "script.tv_on",
		CONF_WOL:       "on",
	})
	require.NoError(t, err)
	assert.Equal(flow.RESULT_TYPE_CREATE_ENTRY, res.Type)
	assert.Equal("", res.Title)
	assert.Equal(map[string]any{
		CONF_NAME:      "Bar",
		CONF_ON_ACTION: "script.tv_on",
		CONF_WOL:       true,
	}, res.Data)
}

func TestOptionsWithoutTurnOnAction(t *testing.T) {
	f := newTestOptionsFlow(nil)
	res, err := f.Configure(context.Background(), "init", map[string]any{
		CONF_NAME:      "Bar",
		CONF_ON_ACTION: nil,
		CONF_WOL:       false,
	})
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_CREATE_ENTRY, res.Type)
	assert.Contains(t, res.Data, CONF_ON_ACTION)
	assert.Nil(t, res.Data[CONF_ON_ACTION])
}

func TestOptionsScriptNotFound(t *testing.T) {
	f := newTestOptionsFlow(nil)
	res, err := f.Configure(context.Background(), "init", map[string]any{
		CONF_NAME:      "Bar",
		CONF_ON_ACTION: "script.missing",
		CONF_WOL:       false,
	})
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal(t, "Script not found.", res.Errors[CONF_ON_ACTION])
}

func TestOptionsRejectsBadInput(t *testing.T) {
	f := newTestOptionsFlow(nil)
	res, err := f.Configure(context.Background(), "init", map[string]any{
		CONF_WOL: "maybe",
	})
	require.NoError(t, err)
	assert.Equal(t, flow.RESULT_TYPE_FORM, res.Type)
	assert.Equal(t, "required key not provided", res.Errors[CONF_NAME])
	assert.Equal(t, "expected boolean", res.Errors[CONF_WOL])
}
