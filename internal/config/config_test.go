package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMQTTTopic(t *testing.T) {
	assert := assert.New(t)

	topic, err := CheckMQTTTopic("HassBridge_1")
	assert.NoError(err)
	assert.Equal("hassbridge_1", topic)

	_, err = CheckMQTTTopic("hass/bridge")
	assert.Error(err, "slash not allowed")

	_, err = CheckMQTTTopic("")
	assert.Error(err, "empty topic")
}

func TestCheckStorageSource(t *testing.T) {
	assert := assert.New(t)

	source, err := CheckStorageSource(" Modbus ")
	assert.NoError(err)
	assert.Equal(StorageSourceModbus, source)

	source, err = CheckStorageSource("growatt")
	assert.NoError(err)
	assert.Equal(StorageSourceGrowatt, source)

	_, err = CheckStorageSource("sunspec")
	assert.Error(err)
}
