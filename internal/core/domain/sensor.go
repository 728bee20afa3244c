package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/hassbridge/internal/core/sensortypes"
	"github.com/berfenger/hassbridge/pkg/growatt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE           = "bridge"
	BUTTON_ID_SONGPAL_DISCOVERY_SCAN = "songpal_discovery_scan"
	DEVICE_CLASS_CONNECTIVITY        = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC          = "diagnostic"
	ENTITY_CLASS_CONFIG              = "config"
	SENSOR_TYPE_SENSOR               = "sensor"
	SENSOR_TYPE_BINARY               = "binary_sensor"
	SENSOR_TYPE_BUTTON               = "button"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("hassbridge_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "hassbridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("hassbridge %s", md5HashShort(baseTopic)),
	}
}

func StorageDevice(info *growatt.StorageInfo) Device {
	return Device{
		Id:           fmt.Sprintf("hb_storage_%s", md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// StorageSensors maps descriptors to sensors of the storage device. Only the
// first one carries the full device block.
func StorageSensors(storageDevice Device, descriptors []sensortypes.SensorEntityDescription) []GenericSensor {

	var sensors []GenericSensor

	for i, d := range descriptors {
		dev := storageDevice
		if i > 0 {
			dev = IdDevice(storageDevice)
		}
		sensors = append(sensors, GenericSensor{
			Device:                    dev,
			Id:                        d.Key,
			SensorType:                SENSOR_TYPE_SENSOR,
			Name:                      d.Name,
			UnitOfMeasurement:         d.NativeUnitOfMeasurement,
			DeviceClass:               d.DeviceClass,
			StateClass:                d.StateClass,
			SuggestedDisplayPrecision: d.Precision,
			UniqueId:                  uniqueId(storageDevice.Id, d.Key),
		})
	}

	return sensors
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connectivity
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func BridgeButtons(bridgeDevice Device) []GenericButton {
	return []GenericButton{{
		Device:         IdDevice(bridgeDevice),
		Id:             BUTTON_ID_SONGPAL_DISCOVERY_SCAN,
		Name:           "Scan for Songpal devices",
		Icon:           "mdi:speaker-wireless",
		EntityCategory: ENTITY_CLASS_CONFIG,
		UniqueId:       uniqueId(bridgeDevice.Id, BUTTON_ID_SONGPAL_DISCOVERY_SCAN),
	}}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
