package growatt

import (
	"slices"
	"strings"
	"time"

	"github.com/simonvetter/modbus"
)

type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func (reader ModbusClient) readString(address uint16, size uint16, regType modbus.RegType) (string, error) {
	bytes, err := reader.readRawBytes(address, size, regType)
	if err != nil {
		return "", err
	}
	f := slices.Index(bytes, 0x00)
	if f >= 0 {
		bytes = bytes[:f]
	}
	return strings.TrimSpace(string(bytes)), nil
}

func (reader ModbusClient) readRegister(addr uint16, regType modbus.RegType) (uint16, error) {
	defer RecordTimer("ReadRegister", reader.instrument)()
	return reader.client.ReadRegister(addr, regType)
}

func (reader ModbusClient) readUint32(addr uint16, regType modbus.RegType) (uint32, error) {
	defer RecordTimer("ReadUint32", reader.instrument)()
	return reader.client.ReadUint32(addr, regType)
}

func (reader ModbusClient) readRawBytes(addr uint16, quantity uint16, regType modbus.RegType) ([]byte, error) {
	defer RecordTimer("ReadRawBytes", reader.instrument)()
	return reader.client.ReadRawBytes(addr, quantity, regType)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
