package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/hassbridge/internal/config"
	"github.com/berfenger/hassbridge/internal/core/domain"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := &config.Config{MQTT: config.MQTTConfig{
		Host:             "localhost",
		Port:             1883,
		BaseTopic:        "hassbridge",
		HADiscoveryTopic: "homeassistant",
	}}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestButtonCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/button/songpal_discovery_scan/press"
	r := buttonCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal("songpal_discovery_scan", matches[0][1], "button extract")
}

func TestButtonCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := buttonCommandExtractor("loremTopic")

	assert.Len(r.FindAllStringSubmatch("loremTopic/button/my_button/state", 1), 0, "no matches")
	assert.Len(r.FindAllStringSubmatch("other/loremTopic/button/my_button/press", 1), 0, "anchored")
}

func TestTopics(t *testing.T) {
	assert := assert.New(t)

	c := testClient()
	assert.Equal("hassbridge/bridge/state", c.BridgeStateTopic())
	assert.Equal("hassbridge/sensor/storage_battery_voltage/state", c.SensorStateTopic("storage_battery_voltage"))
	assert.Equal("hassbridge/button/songpal_discovery_scan/press", c.ButtonCommandTopic(domain.BUTTON_ID_SONGPAL_DISCOVERY_SCAN))
	assert.Equal("hassbridge/button/+/press", c.commandTopic())
}

func TestSensorDiscoveryMessage(t *testing.T) {
	assert := assert.New(t)

	c := testClient()
	sensor := domain.GenericSensor{
		Device:                    domain.Device{Id: "hb_storage_1234", Name: "Growatt"},
		Id:                        "storage_battery_voltage",
		SensorType:                domain.SENSOR_TYPE_SENSOR,
		Name:                      "Battery voltage",
		UniqueId:                  "uid_hb_storage_1234_storage_battery_voltage",
		UnitOfMeasurement:         "V",
		DeviceClass:               "voltage",
		SuggestedDisplayPrecision: null.IntFrom(2),
	}

	assert.Equal("homeassistant/sensor/hb_storage_1234/storage_battery_voltage/config", HADiscoverySensorTopic(c.DiscoveryTopic(), sensor))

	msg := GenericSensorToHADiscoveryMessage(c, sensor)
	payload, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal("hassbridge/sensor/storage_battery_voltage/state", decoded["state_topic"])
	assert.Equal("hassbridge/bridge/state", decoded["availability_topic"])
	assert.EqualValues(2, decoded["suggested_display_precision"])
	assert.NotContains(decoded, "state_class")
}

func TestSensorDiscoveryMessageNoPrecision(t *testing.T) {
	c := testClient()
	msg := GenericSensorToHADiscoveryMessage(c, domain.GenericSensor{Id: "storage_battery_percentage", SensorType: domain.SENSOR_TYPE_SENSOR})
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "suggested_display_precision")
}

func TestBridgeAndButtonDiscoveryMessage(t *testing.T) {
	assert := assert.New(t)

	c := testClient()
	bridge := domain.BridgeDevice("hassbridge")

	bridgeMsg := GenericSensorToHADiscoveryMessage(c, domain.BridgeSensors(bridge)[0])
	assert.Equal("hassbridge/bridge/state", bridgeMsg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, bridgeMsg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFFLINE, bridgeMsg.PayloadOff)

	button := domain.BridgeButtons(bridge)[0]
	buttonMsg := GenericButtonToHADiscoveryMessage(c, button)
	assert.Equal("hassbridge/button/songpal_discovery_scan/press", buttonMsg.CommandTopic)
	assert.Equal(MQTT_PAYLOAD_PRESS, buttonMsg.PayloadPress)
	assert.Empty(buttonMsg.StateTopic)
	assert.Equal("homeassistant/button/"+bridge.Id+"/songpal_discovery_scan/config", HADiscoveryButtonTopic(c.DiscoveryTopic(), button))
}
