package util

import (
	"github.com/berfenger/hassbridge/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Storage: config.StorageConfig{
			Source: config.StorageSourceTest,
			Model:  "SPF 5000 ES",
			Modbus: config.StorageModbusConfig{
				Host:          "-.-.-.-",
				Port:          502,
				UnitId:        1,
				TimeoutMillis: 1000,
			},
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "hassbridge",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 1000,
		},
		Songpal: config.SongpalConfig{
			DiscoveryTimeoutMillis: 500,
			ProbeTimeoutMillis:     2000,
			Scripts:                []string{"script.tv_on"},
		},
		Port: 8080,
	}
}
