package growatt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"
)

const testModbusAddr = "127.0.0.1:15502"

func startFakeStorage(t *testing.T) *mbserver.Server {
	serv := mbserver.NewServer()
	require.NoError(t, serv.ListenTCP(testModbusAddr))
	t.Cleanup(serv.Close)

	// serial "TST1234567"
	copy(serv.HoldingRegisters[serialAddress:], []uint16{0x5453, 0x5431, 0x3233, 0x3435, 0x3637})
	// firmware "RA1.0" + NUL
	copy(serv.HoldingRegisters[firmwareAddress:], []uint16{0x5241, 0x312e, 0x3000})

	serv.InputRegisters[17] = 5231          // vBat, 0.01V
	serv.InputRegisters[18] = 67            // capacity, %
	serv.InputRegisters[60] = 0             // eBatDisChargeToday high word
	serv.InputRegisters[61] = 34            // eBatDisChargeToday low word, 0.1kWh
	serv.InputRegisters[77] = 0xFFFF        // pCharge high word
	serv.InputRegisters[78] = 0xFFFF - 2304 // pCharge = -2305 * 0.1W
	return serv
}

func TestStorageModbusReader(t *testing.T) {
	startFakeStorage(t)

	registers := []Register{
		{APIKey: "vBat", Address: 17, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.01},
		{APIKey: "capacity", Address: 18, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 1},
		{APIKey: "eBatDisChargeToday", Address: 60, Type: RegisterTypeInput, DataType: DataTypeUint32, Scale: 0.1},
		{APIKey: "pCharge", Address: 77, Type: RegisterTypeInput, DataType: DataTypeInt32, Scale: 0.1},
	}

	reader, err := CreateStorageModbusReader("127.0.0.1", 15502, 1, time.Second, "SPF 5000 ES", registers, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, reader.Open())
	defer reader.Close()

	info, err := reader.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "TST1234567", info.Serial)
	assert.Equal(t, "RA1.0", info.Version)
	assert.Equal(t, Manufacturer, info.Manufacturer)
	assert.Equal(t, "SPF 5000 ES", info.Model)

	telemetry, err := reader.ReadTelemetry()
	require.NoError(t, err)
	assert.InDelta(t, 52.31, telemetry["vBat"], 0.0001)
	assert.InDelta(t, 67, telemetry["capacity"], 0.0001)
	assert.InDelta(t, 3.4, telemetry["eBatDisChargeToday"], 0.0001)
	assert.InDelta(t, -230.5, telemetry["pCharge"], 0.0001)
}

func TestStorageModbusReaderInstrumentation(t *testing.T) {
	startFakeStorage(t)

	calls := 0
	inst := &ModbusInstrument{RecordTime: func(string, time.Duration) { calls++ }}
	registers := []Register{
		{APIKey: "capacity", Address: 18, Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 1},
	}
	reader, err := CreateStorageModbusReader("127.0.0.1", 15502, 0, time.Second, "", registers, nil, inst)
	require.NoError(t, err)
	require.NoError(t, reader.Open())
	defer reader.Close()

	_, err = reader.ReadTelemetry()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegisterValidation(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Register{APIKey: "vBat", Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 0.01}.Validate())
	assert.Error(Register{Type: RegisterTypeInput, DataType: DataTypeUint16, Scale: 1}.Validate(), "missing api key")
	assert.Error(Register{APIKey: "vBat", Type: "coil", DataType: DataTypeUint16, Scale: 1}.Validate(), "bad register type")
	assert.Error(Register{APIKey: "vBat", Type: RegisterTypeInput, DataType: "float", Scale: 1}.Validate(), "bad data type")
	assert.Error(Register{APIKey: "vBat", Type: RegisterTypeInput, DataType: DataTypeUint16}.Validate(), "zero scale")

	_, err := CreateStorageModbusReader("127.0.0.1", 15502, 1, time.Second, "", []Register{{APIKey: "x"}}, nil, nil)
	assert.Error(err)
}

func TestDefaultStorageRegistersAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultStorageRegisters() {
		assert.NoError(t, r.Validate())
		assert.False(t, seen[r.APIKey], "duplicated api key %s", r.APIKey)
		seen[r.APIKey] = true
	}
}
