package growatt

func CreateTestStorageReader() (StorageReader, error) {
	return TestStorageReader{}, nil
}

type TestStorageReader struct {
}

func (st TestStorageReader) Open() error {
	return nil
}

func (st TestStorageReader) Close() error {
	return nil
}

func (st TestStorageReader) GetInfo() (*StorageInfo, error) {
	return &StorageInfo{
		Manufacturer: Manufacturer,
		Model:        "SPF 5000 ES",
		Version:      "RA1.0",
		Serial:       "TST1234567",
	}, nil
}

func (st TestStorageReader) ReadTelemetry() (Telemetry, error) {
	return Telemetry{
		"eBatDisChargeToday": 3.4,
		"eBatDisChargeTotal": 1520.7,
		"eChargeToday":       4.1,
		"eChargeTotal":       1733.2,
		"capacity":           67,
		"vBat":               52.31,
		"ppv":                1843.5,
		"outPutPower":        612.2,
		"pCharge":            -230.5,
		"freqGrid":           50.01,
		"loadPercent":        12.3,
		"statusText":         1,
	}, nil
}
