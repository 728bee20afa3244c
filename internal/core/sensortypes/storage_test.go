package sensortypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageSensorTypesUniqueKeys(t *testing.T) {
	assert := assert.New(t)

	table := StorageSensorTypes()
	assert.Len(table, 27)

	keys := map[string]bool{}
	apiKeys := map[string]bool{}
	for _, d := range table {
		assert.False(keys[d.Key], "duplicate key %s", d.Key)
		assert.False(apiKeys[d.APIKey], "duplicate api key %s", d.APIKey)
		keys[d.Key] = true
		apiKeys[d.APIKey] = true
	}
}

func TestStorageSensorTypesStateClass(t *testing.T) {
	assert := assert.New(t)

	totals := 0
	for _, d := range StorageSensorTypes() {
		lifetime := strings.Contains(strings.ToLower(d.Name), "lifetime") || strings.HasSuffix(d.Key, "_total")
		if d.NativeUnitOfMeasurement == UNIT_KILO_WATT_HOUR && lifetime {
			assert.Equal(STATE_CLASS_TOTAL, d.StateClass, d.Key)
			totals++
		} else {
			assert.Empty(d.StateClass, d.Key)
		}
	}
	assert.Equal(4, totals)
}

func TestStorageSensorTypesIsCopy(t *testing.T) {
	table := StorageSensorTypes()
	table[0].Name = "changed"

	d, ok := LookupByKey(table[0].Key)
	assert.True(t, ok)
	assert.Equal(t, "Storage production today", d.Name)
}

func TestLookupByAPIKey(t *testing.T) {
	assert := assert.New(t)

	d, ok := LookupByAPIKey("vBat")
	assert.True(ok)
	assert.Equal("storage_battery_voltage", d.Key)
	assert.Equal(UNIT_VOLT, d.NativeUnitOfMeasurement)
	assert.Equal(DEVICE_CLASS_VOLTAGE, d.DeviceClass)
	assert.True(d.Precision.Valid)
	assert.EqualValues(2, d.Precision.Int64)

	d, ok = LookupByAPIKey("capacity")
	assert.True(ok)
	assert.False(d.Precision.Valid)

	_, ok = LookupByAPIKey("statusText")
	assert.False(ok)
}

func TestAPIKeysSorted(t *testing.T) {
	keys := APIKeys()
	assert.Len(t, keys, 27)
	assert.IsNonDecreasing(t, keys)
}
