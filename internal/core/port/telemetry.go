package port

import "github.com/berfenger/hassbridge/pkg/growatt"

type StorageTelemetrySource interface {
	Open() error
	Close() error
	GetInfo() (*growatt.StorageInfo, error)
	ReadTelemetry() (growatt.Telemetry, error)
}
