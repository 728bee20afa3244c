package actorutil

import (
	"testing"

	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/mqtt"

	"github.com/stretchr/testify/assert"
)

func TestParsedMQTTCommandToCommand(t *testing.T) {
	assert := assert.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: domain.BUTTON_ID_SONGPAL_DISCOVERY_SCAN,
		Command:  mqtt.COMMAND_BUTTON,
		Payload:  mqtt.MQTT_PAYLOAD_PRESS,
	})
	assert.NoError(err)
	assert.IsType(domain.DiscoveryScanRequest{}, cmd)

	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: domain.BUTTON_ID_SONGPAL_DISCOVERY_SCAN,
		Command:  mqtt.COMMAND_BUTTON,
		Payload:  "on",
	})
	assert.Error(err)

	cmd, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{DeviceId: "unknown", Command: mqtt.COMMAND_BUTTON})
	assert.NoError(err)
	assert.Nil(cmd)
}
