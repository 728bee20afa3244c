package domain

import "github.com/guregu/null"

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device                    Device
	Id                        string
	SensorType                string
	Name                      string
	UniqueId                  string
	UnitOfMeasurement         string
	StateClass                string // measurement, total, total_increasing
	DeviceClass               string // voltage, current, power, energy, battery
	EntityCategory            string // diagnostic, config, nil
	EnabledByDefault          *bool
	Icon                      string
	SuggestedDisplayPrecision null.Int
}

type GenericButton struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	Icon           string
	EntityCategory string
}
