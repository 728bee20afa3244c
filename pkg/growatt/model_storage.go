package growatt

const (
	Manufacturer = "Growatt"
)

// Telemetry is one storage snapshot keyed by Growatt API field name
// (eBatDisChargeToday, vBat, ...).
type Telemetry map[string]float64

type StorageInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

type StorageReader interface {
	Open() error
	Close() error
	GetInfo() (*StorageInfo, error)
	ReadTelemetry() (Telemetry, error)
}
