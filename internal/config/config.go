package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	StorageSourceModbus  = "modbus"
	StorageSourceGrowatt = "growatt"
	StorageSourceTest    = "test"
)

type Config struct {
	LogLevel      zapcore.Level
	Storage       StorageConfig `mapstructure:"storage"`
	MQTT          MQTTConfig    `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig `mapstructure:"monitor"`
	Songpal       SongpalConfig `mapstructure:"songpal"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type StorageConfig struct {
	Source  string               `mapstructure:"source"`
	Model   string               `mapstructure:"model"`
	Modbus  StorageModbusConfig  `mapstructure:"modbus"`
	Growatt StorageGrowattConfig `mapstructure:"growatt"`
}

type StorageModbusConfig struct {
	Host          string
	Port          uint
	UnitId        uint             `mapstructure:"unit_id"`
	TimeoutMillis uint32           `mapstructure:"timeout_millis"`
	Registers     []RegisterConfig `mapstructure:"registers"`
}

type RegisterConfig struct {
	APIKey   string  `mapstructure:"api_key"`
	Address  uint16  `mapstructure:"address"`
	Type     string  `mapstructure:"type"`
	DataType string  `mapstructure:"data_type"`
	Scale    float64 `mapstructure:"scale"`
}

type StorageGrowattConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Token         string `mapstructure:"token"`
	Serial        string `mapstructure:"serial"`
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type SongpalConfig struct {
	EntriesFile              string   `mapstructure:"entries_file"`
	DiscoveryIntervalSeconds uint32   `mapstructure:"discovery_interval_seconds"`
	DiscoveryTimeoutMillis   uint32   `mapstructure:"discovery_timeout_millis"`
	ProbeTimeoutMillis       uint32   `mapstructure:"probe_timeout_millis"`
	Scripts                  []string `mapstructure:"scripts"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func CheckStorageSource(source string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(source))
	switch s {
	case StorageSourceModbus, StorageSourceGrowatt, StorageSourceTest:
		return s, nil
	}
	return "", errors.New("invalid storage source. must be one of modbus, growatt, test")
}
