package growatt

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

const (
	serialAddress   = 23
	serialBytes     = 10
	firmwareAddress = 9
	firmwareBytes   = 6
)

type StorageModbusReader struct {
	ModbusClient

	logger    *zap.Logger
	model     string
	registers []Register
}

func (st *StorageModbusReader) Open() error {
	return st.client.Open()
}

func (st *StorageModbusReader) Close() error {
	return st.client.Close()
}

func (st *StorageModbusReader) GetInfo() (*StorageInfo, error) {
	serial, err := st.readString(serialAddress, serialBytes, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	if serial == "" {
		return nil, errors.New("growatt: storage reported an empty serial number")
	}
	version, err := st.readString(firmwareAddress, firmwareBytes, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &StorageInfo{
		Manufacturer: Manufacturer,
		Model:        st.model,
		Version:      version,
		Serial:       serial,
	}, nil
}

func (st *StorageModbusReader) ReadTelemetry() (Telemetry, error) {
	telemetry := make(Telemetry, len(st.registers))
	for _, r := range st.registers {
		value, err := st.readScaled(r)
		if err != nil {
			return nil, fmt.Errorf("growatt: read %s@%d: %w", r.APIKey, r.Address, err)
		}
		telemetry[r.APIKey] = value
	}
	return telemetry, nil
}

func CreateStorageModbusReader(host string, port uint, unitId uint8, timeout time.Duration, model string,
	registers []Register, logger *zap.Logger, instrumentation *ModbusInstrument) (StorageReader, error) {

	if len(registers) == 0 {
		registers = DefaultStorageRegisters()
	}
	for _, r := range registers {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	if err = client.SetEncoding(modbus.BIG_ENDIAN, modbus.HIGH_WORD_FIRST); err != nil {
		return nil, err
	}

	// instrumentation
	var inst []ModbusInstrument
	if logger != nil {
		inst = append(inst, traceLoggerInstrumentation(logger.With(zap.String("target", "storage"), zap.Uint8("unit", unitId))))
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	if unitId > 0 {
		err = client.SetUnitId(unitId)
		if err != nil {
			return nil, err
		}
	}

	return &StorageModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger:    logger,
		model:     model,
		registers: registers,
	}, nil
}

func traceLoggerInstrumentation(logger *zap.Logger) ModbusInstrument {
	return ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus call", zap.String("fn", fnName), zap.Duration("took", readTime))
		},
	}
}
