package events

import (
	"sort"

	. "github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/sensortypes"
	"github.com/berfenger/hassbridge/pkg/growatt"

	"go.uber.org/zap"
)

const DEFAULT_DECIMALS = 2

// TelemetryToUpdateEvents emits one float update per known telemetry field,
// ordered by api key. Unknown fields are skipped.
func TelemetryToUpdateEvents(telemetry growatt.Telemetry, logger *zap.Logger) []any {
	var events []any

	apiKeys := make([]string, 0, len(telemetry))
	for k := range telemetry {
		apiKeys = append(apiKeys, k)
	}
	sort.Strings(apiKeys)

	for _, apiKey := range apiKeys {
		desc, ok := sensortypes.LookupByAPIKey(apiKey)
		if !ok {
			logger.Debug("events: unknown telemetry field", zap.String("api_key", apiKey))
			continue
		}
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: desc.Key,
			},
			Value:    telemetry[apiKey],
			Decimals: Decimals(desc),
		})
	}

	return events
}

func Decimals(desc sensortypes.SensorEntityDescription) uint {
	if desc.Precision.Valid && desc.Precision.Int64 >= 0 {
		return uint(desc.Precision.Int64)
	}
	if desc.NativeUnitOfMeasurement == sensortypes.UNIT_PERCENTAGE {
		return 0
	}
	return DEFAULT_DECIMALS
}

func BridgeStateEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}
