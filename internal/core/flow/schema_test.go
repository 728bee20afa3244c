package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionsSchema() *Schema {
	return NewSchema(
		Field{Name: "name", Type: FIELD_TYPE_STRING, Required: true},
		Field{Name: "turn_on_action", Type: FIELD_TYPE_SELECT, Options: []string{"script.tv_on"}},
		Field{Name: "wake_on_lan", Type: FIELD_TYPE_BOOL, Default: false},
	)
}

func TestSchemaValidateDefaults(t *testing.T) {
	assert := assert.New(t)

	out, err := optionsSchema().Validate(map[string]any{"name": "Living room"})
	require.NoError(t, err)
	assert.Equal("Living room", out["name"])
	assert.Contains(out, "turn_on_action")
	assert.Nil(out["turn_on_action"])
	assert.Equal(false, out["wake_on_lan"])
}

func TestSchemaValidateCoercion(t *testing.T) {
	assert := assert.New(t)

	out, err := optionsSchema().Validate(map[string]any{
		"name":           "Kitchen",
		"turn_on_action": "script.tv_on",
		"wake_on_lan":    "on",
	})
	require.NoError(t, err)
	assert.Equal("script.tv_on", out["turn_on_action"])
	assert.Equal(true, out["wake_on_lan"])
}

func TestSchemaValidateErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := optionsSchema().Validate(map[string]any{
		"turn_on_action": "script.missing",
		"wake_on_lan":    "maybe",
		"color":          "red",
	})
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal("required key not provided", verr.Errors["name"])
	assert.Contains(verr.Errors["turn_on_action"], "value must be one of")
	assert.Equal("expected boolean", verr.Errors["wake_on_lan"])
	assert.Equal("extra keys not allowed", verr.Errors["color"])
}

func TestSchemaWithSuggestedValues(t *testing.T) {
	assert := assert.New(t)

	schema := optionsSchema()
	suggested := schema.WithSuggestedValues(map[string]any{"name": "Den", "wake_on_lan": true})

	assert.Equal("Den", suggested.Fields[0].Suggested)
	assert.Nil(suggested.Fields[1].Suggested)
	assert.Equal(true, suggested.Fields[2].Suggested)
	assert.Nil(schema.Fields[0].Suggested, "original untouched")
}

func TestSchemaSelectCustomValue(t *testing.T) {
	schema := NewSchema(
		Field{Name: "turn_on_action", Type: FIELD_TYPE_SELECT, Options: []string{"script.tv_on"}, CustomValue: true},
	)

	out, err := schema.Validate(map[string]any{"turn_on_action": "script.other"})
	require.NoError(t, err)
	assert.Equal(t, "script.other", out["turn_on_action"])

	_, err = schema.Validate(map[string]any{"turn_on_action": 3.0})
	assert.Error(t, err)
}
