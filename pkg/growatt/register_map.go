package growatt

import (
	"fmt"
	"math"

	"github.com/simonvetter/modbus"
)

type RegisterType string

type DataType string

const (
	RegisterTypeHolding RegisterType = "holding"
	RegisterTypeInput   RegisterType = "input"

	DataTypeUint16 DataType = "uint16"
	DataTypeInt16  DataType = "int16"
	DataTypeUint32 DataType = "uint32"
	DataTypeInt32  DataType = "int32"
)

// Register binds one Growatt API field to the Modbus register that carries it.
type Register struct {
	APIKey   string
	Address  uint16
	Type     RegisterType
	DataType DataType
	Scale    float64
}

// DefaultStorageRegisters follows the input register layout of the SPF
// off-grid storage inverters. Installations with a different layout override
// it from configuration.
func DefaultStorageRegisters() []Register {
	return []Register{
		{APIKey: "vpv", Address: 1, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "ppv", Address: 3, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "iChargePV1", Address: 7, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "outPutPower", Address: 9, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "rateVA", Address: 11, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "vBat", Address: 17, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.01},
		{APIKey: "capacity", Address: 18, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 1},
		{APIKey: "vGrid", Address: 20, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "freqOutPut", Address: 21, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.01},
		{APIKey: "outPutVolt", Address: 22, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "freqGrid", Address: 23, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.01},
		{APIKey: "loadPercent", Address: 27, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "outPutCurrent", Address: 34, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "pAcInPut", Address: 36, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eacChargeToday", Address: 56, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eChargeTotal", Address: 58, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eBatDisChargeToday", Address: 60, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eBatDisChargeTotal", Address: 62, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eacDisChargeToday", Address: 64, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eopDischrToday", Address: 68, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "eopDischrTotal", Address: 70, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "chgCurr", Address: 72, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.1},
		{APIKey: "pCharge", Address: 77, Type: RegisterTypeInput, DataType: DataTypeInt32, Scale: 0.1},
	}
}

func (r Register) Validate() error {
	if r.APIKey == "" {
		return fmt.Errorf("growatt: register %d has no api key", r.Address)
	}
	switch r.Type {
	case RegisterTypeHolding, RegisterTypeInput:
	default:
		return fmt.Errorf("growatt: register %s: invalid register type %q", r.APIKey, r.Type)
	}
	switch r.DataType {
	case DataTypeUint16, DataTypeInt16, DataTypeUint32, DataTypeInt32:
	default:
		return fmt.Errorf("growatt: register %s: invalid data type %q", r.APIKey, r.DataType)
	}
	if r.Scale == 0 {
		return fmt.Errorf("growatt: register %s: scale must not be 0", r.APIKey)
	}
	return nil
}

func (r Register) modbusRegType() modbus.RegType {
	if r.Type == RegisterTypeHolding {
		return modbus.HOLDING_REGISTER
	}
	return modbus.INPUT_REGISTER
}

func (reader ModbusClient) readScaled(r Register) (float64, error) {
	var raw float64
	switch r.DataType {
	case DataTypeUint16:
		v, err := reader.readRegister(r.Address, r.modbusRegType())
		if err != nil {
			return 0, err
		}
		raw = float64(v)
	case DataTypeInt16:
		v, err := reader.readRegister(r.Address, r.modbusRegType())
		if err != nil {
			return 0, err
		}
		raw = float64(int16(v))
	case DataTypeUint32:
		v, err := reader.readUint32(r.Address, r.modbusRegType())
		if err != nil {
			return 0, err
		}
		raw = float64(v)
	case DataTypeInt32:
		v, err := reader.readUint32(r.Address, r.modbusRegType())
		if err != nil {
			return 0, err
		}
		raw = float64(int32(v))
	default:
		return 0, fmt.Errorf("growatt: unsupported data type %q", r.DataType)
	}
	return roundTo(raw*r.Scale, 4), nil
}

func roundTo(value float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(value*p) / p
}
