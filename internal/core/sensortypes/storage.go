// Package sensortypes holds the static sensor descriptor tables. Each
// descriptor binds one vendor telemetry field to one exposed measurement.
package sensortypes

import (
	"sort"

	"github.com/guregu/null"
)

const (
	UNIT_KILO_WATT_HOUR = "kWh"
	UNIT_WATT           = "W"
	UNIT_PERCENTAGE     = "%"
	UNIT_VOLT           = "V"
	UNIT_AMPERE         = "A"
	UNIT_HERTZ          = "Hz"
	UNIT_VOLT_AMPERE    = "VA"

	DEVICE_CLASS_ENERGY  = "energy"
	DEVICE_CLASS_POWER   = "power"
	DEVICE_CLASS_BATTERY = "battery"
	DEVICE_CLASS_VOLTAGE = "voltage"
	DEVICE_CLASS_CURRENT = "current"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL            = "total"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
)

type SensorEntityDescription struct {
	Key                     string   `json:"key"`
	Name                    string   `json:"name"`
	APIKey                  string   `json:"api_key"`
	NativeUnitOfMeasurement string   `json:"native_unit_of_measurement,omitempty"`
	DeviceClass             string   `json:"device_class,omitempty"`
	StateClass              string   `json:"state_class,omitempty"`
	Precision               null.Int `json:"precision"`
}

var storageSensorTypes = []SensorEntityDescription{
	{
		Key:                     "storage_storage_production_today",
		Name:                    "Storage production today",
		APIKey:                  "eBatDisChargeToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_storage_production_lifetime",
		Name:                    "Lifetime Storage production",
		APIKey:                  "eBatDisChargeTotal",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
		StateClass:              STATE_CLASS_TOTAL,
	},
	{
		Key:                     "storage_grid_discharge_today",
		Name:                    "Grid discharged today",
		APIKey:                  "eacDisChargeToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_load_consumption_today",
		Name:                    "Load consumption today",
		APIKey:                  "eopDischrToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_load_consumption_lifetime",
		Name:                    "Lifetime load consumption",
		APIKey:                  "eopDischrTotal",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
		StateClass:              STATE_CLASS_TOTAL,
	},
	{
		Key:                     "storage_grid_charged_today",
		Name:                    "Grid charged today",
		APIKey:                  "eacChargeToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_charge_storage_lifetime",
		Name:                    "Lifetime storaged charged",
		APIKey:                  "eChargeTotal",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
		StateClass:              STATE_CLASS_TOTAL,
	},
	{
		Key:                     "storage_solar_production",
		Name:                    "Solar power production",
		APIKey:                  "ppv",
		NativeUnitOfMeasurement: UNIT_WATT,
		DeviceClass:             DEVICE_CLASS_POWER,
	},
	{
		Key:                     "storage_battery_percentage",
		Name:                    "Battery percentage",
		APIKey:                  "capacity",
		NativeUnitOfMeasurement: UNIT_PERCENTAGE,
		DeviceClass:             DEVICE_CLASS_BATTERY,
	},
	{
		Key:                     "storage_power_flow",
		Name:                    "Storage charging/ discharging(-ve)",
		APIKey:                  "pCharge",
		NativeUnitOfMeasurement: UNIT_WATT,
		DeviceClass:             DEVICE_CLASS_POWER,
	},
	{
		Key:                     "storage_load_consumption_solar_storage",
		Name:                    "Load consumption(Solar + Storage)",
		APIKey:                  "rateVA",
		NativeUnitOfMeasurement: UNIT_VOLT_AMPERE,
	},
	{
		Key:                     "storage_charge_today",
		Name:                    "Charge today",
		APIKey:                  "eChargeToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_import_from_grid",
		Name:                    "Import from grid",
		APIKey:                  "pAcInPut",
		NativeUnitOfMeasurement: UNIT_WATT,
		DeviceClass:             DEVICE_CLASS_POWER,
	},
	{
		Key:                     "storage_import_from_grid_today",
		Name:                    "Import from grid today",
		APIKey:                  "eToUserToday",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
	},
	{
		Key:                     "storage_import_from_grid_total",
		Name:                    "Import from grid total",
		APIKey:                  "eToUserTotal",
		NativeUnitOfMeasurement: UNIT_KILO_WATT_HOUR,
		DeviceClass:             DEVICE_CLASS_ENERGY,
		StateClass:              STATE_CLASS_TOTAL,
	},
	{
		Key:                     "storage_load_consumption",
		Name:                    "Load consumption",
		APIKey:                  "outPutPower",
		NativeUnitOfMeasurement: UNIT_WATT,
		DeviceClass:             DEVICE_CLASS_POWER,
	},
	{
		Key:                     "storage_grid_voltage",
		Name:                    "AC input voltage",
		APIKey:                  "vGrid",
		NativeUnitOfMeasurement: UNIT_VOLT,
		DeviceClass:             DEVICE_CLASS_VOLTAGE,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_pv_charging_voltage",
		Name:                    "PV charging voltage",
		APIKey:                  "vpv",
		NativeUnitOfMeasurement: UNIT_VOLT,
		DeviceClass:             DEVICE_CLASS_VOLTAGE,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_ac_input_frequency_out",
		Name:                    "AC input frequency",
		APIKey:                  "freqOutPut",
		NativeUnitOfMeasurement: UNIT_HERTZ,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_output_voltage",
		Name:                    "Output voltage",
		APIKey:                  "outPutVolt",
		NativeUnitOfMeasurement: UNIT_VOLT,
		DeviceClass:             DEVICE_CLASS_VOLTAGE,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_ac_output_frequency",
		Name:                    "Ac output frequency",
		APIKey:                  "freqGrid",
		NativeUnitOfMeasurement: UNIT_HERTZ,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_current_PV",
		Name:                    "Solar charge current",
		APIKey:                  "iAcCharge",
		NativeUnitOfMeasurement: UNIT_AMPERE,
		DeviceClass:             DEVICE_CLASS_CURRENT,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_current_1",
		Name:                    "Solar current to storage",
		APIKey:                  "iChargePV1",
		NativeUnitOfMeasurement: UNIT_AMPERE,
		DeviceClass:             DEVICE_CLASS_CURRENT,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_grid_amperage_input",
		Name:                    "Grid charge current",
		APIKey:                  "chgCurr",
		NativeUnitOfMeasurement: UNIT_AMPERE,
		DeviceClass:             DEVICE_CLASS_CURRENT,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_grid_out_current",
		Name:                    "Grid out current",
		APIKey:                  "outPutCurrent",
		NativeUnitOfMeasurement: UNIT_AMPERE,
		DeviceClass:             DEVICE_CLASS_CURRENT,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_battery_voltage",
		Name:                    "Battery voltage",
		APIKey:                  "vBat",
		NativeUnitOfMeasurement: UNIT_VOLT,
		DeviceClass:             DEVICE_CLASS_VOLTAGE,
		Precision:               null.IntFrom(2),
	},
	{
		Key:                     "storage_load_percentage",
		Name:                    "Load percentage",
		APIKey:                  "loadPercent",
		NativeUnitOfMeasurement: UNIT_PERCENTAGE,
		DeviceClass:             DEVICE_CLASS_BATTERY,
		Precision:               null.IntFrom(2),
	},
}

var (
	storageByAPIKey = indexBy(func(d SensorEntityDescription) string { return d.APIKey })
	storageByKey    = indexBy(func(d SensorEntityDescription) string { return d.Key })
)

func indexBy(key func(SensorEntityDescription) string) map[string]int {
	index := make(map[string]int, len(storageSensorTypes))
	for i := range storageSensorTypes {
		index[key(storageSensorTypes[i])] = i
	}
	return index
}

// StorageSensorTypes returns a copy of the storage descriptor table in
// declaration order.
func StorageSensorTypes() []SensorEntityDescription {
	out := make([]SensorEntityDescription, len(storageSensorTypes))
	copy(out, storageSensorTypes)
	return out
}

func LookupByAPIKey(apiKey string) (SensorEntityDescription, bool) {
	i, ok := storageByAPIKey[apiKey]
	if !ok {
		return SensorEntityDescription{}, false
	}
	return storageSensorTypes[i], true
}

func LookupByKey(key string) (SensorEntityDescription, bool) {
	i, ok := storageByKey[key]
	if !ok {
		return SensorEntityDescription{}, false
	}
	return storageSensorTypes[i], true
}

func APIKeys() []string {
	keys := make([]string, 0, len(storageByAPIKey))
	for k := range storageByAPIKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
