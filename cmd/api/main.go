package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/hassbridge/internal/adapter/actor"
	adscheduler "github.com/berfenger/hassbridge/internal/adapter/scheduler"
	"github.com/berfenger/hassbridge/internal/adapter/ssdp"
	"github.com/berfenger/hassbridge/internal/adapter/store"
	"github.com/berfenger/hassbridge/internal/config"
	"github.com/berfenger/hassbridge/internal/core/actor"
	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/songpal"
	"github.com/berfenger/hassbridge/internal/metrics"
	"github.com/berfenger/hassbridge/internal/server"
	"github.com/berfenger/hassbridge/internal/util/actorutil"
	"github.com/berfenger/hassbridge/pkg/growatt"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// metrics follow every sensor update and flow result
	collector := metrics.New()
	eventStream := &eventstream.EventStream{}
	sub := collector.Subscribe(eventStream)
	defer eventStream.Unsubscribe(sub)

	// init storage telemetry actor provider
	telemetryProv, err := telemetryActorProvider(cfg, collector, logger)
	if err != nil {
		panic(err)
	}

	// config entries
	entries := store.NewEntryStore(cfg.Songpal.EntriesFile, logger)
	if err := entries.Load(); err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, eventStream, telemetryProv, mqttActorProvider(cfg, logger),
			flowManagerActorProvider(cfg, entries, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	// periodic device discovery
	scheduler, err := adscheduler.StartDiscoveryJob(ctx, pid,
		time.Duration(cfg.Songpal.DiscoveryIntervalSeconds)*time.Second, logger)
	if err != nil {
		panic(err)
	}

	server := server.NewServer(*cfg, ctx, pid, collector.Handler())
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	if scheduler != nil {
		scheduler.Stop()
	}
	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => HASSBRIDGE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("HASSBRIDGE_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("hassbridge")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	source, err := config.CheckStorageSource(cfg.Storage.Source)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Source = source

	// check bounds
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return nil, errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	if cfg.Storage.Source == config.StorageSourceModbus && cfg.Storage.Modbus.Host == "" {
		return nil, errors.New("config param storage.modbus.host is required for the modbus source")
	}
	if cfg.Storage.Source == config.StorageSourceGrowatt && (cfg.Storage.Growatt.Token == "" || cfg.Storage.Growatt.Serial == "") {
		return nil, errors.New("config params storage.growatt.token and storage.growatt.serial are required for the growatt source")
	}

	return &cfg, nil
}

func storageReader(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (growatt.StorageReader, error) {
	switch cfg.Storage.Source {
	case config.StorageSourceModbus:
		modbusCfg := cfg.Storage.Modbus
		registers := make([]growatt.Register, 0, len(modbusCfg.Registers))
		for _, r := range modbusCfg.Registers {
			registers = append(registers, growatt.Register{
				APIKey:   r.APIKey,
				Address:  r.Address,
				Type:     growatt.RegisterType(r.Type),
				DataType: growatt.DataType(r.DataType),
				Scale:    r.Scale,
			})
		}
		return growatt.CreateStorageModbusReader(modbusCfg.Host, modbusCfg.Port, uint8(modbusCfg.UnitId),
			time.Duration(modbusCfg.TimeoutMillis)*time.Millisecond, cfg.Storage.Model,
			registers, logger, collector.ModbusInstrument())
	case config.StorageSourceGrowatt:
		apiCfg := cfg.Storage.Growatt
		return growatt.CreateStorageAPIReader(apiCfg.BaseURL, apiCfg.Token, apiCfg.Serial, cfg.Storage.Model,
			time.Duration(apiCfg.TimeoutMillis)*time.Millisecond)
	case config.StorageSourceTest:
		return growatt.CreateTestStorageReader()
	}
	return nil, fmt.Errorf("unsupported storage source %q", cfg.Storage.Source)
}

func telemetryActorProvider(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (actor.TelemetryActorProvider, error) {
	reader, err := storageReader(cfg, collector, logger)
	if err != nil {
		return nil, err
	}
	return func() *adactor.TelemetryActor {
		return adactor.NewTelemetryActor(reader, adactor.DEFAULT_READ_TIMEOUT, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(eventStream *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, eventStream, logger)
	}
}

func flowManagerActorProvider(cfg *config.Config, entries flow.EntryRegistry, logger *zap.Logger) actor.FlowManagerActorProvider {
	songpalCfg := cfg.Songpal
	handlers := []flow.Handler{
		songpal.NewHandler(nil, store.NewStaticScripts(songpalCfg.Scripts), logger),
	}
	scanner := ssdp.NewScanner(logger)
	return func(eventStream *eventstream.EventStream) *actor.FlowManagerActor {
		return actor.NewFlowManagerActor(handlers, entries, scanner, eventStream, actor.FlowManagerConfig{
			StepTimeout:      time.Duration(songpalCfg.ProbeTimeoutMillis) * time.Millisecond,
			ScanWait:         time.Duration(songpalCfg.DiscoveryTimeoutMillis) * time.Millisecond,
			DiscoveryHandler: songpal.DOMAIN,
		}, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("storage.source", config.StorageSourceModbus)
	viper.SetDefault("storage.model", "SPF 5000 ES")
	viper.SetDefault("storage.modbus.port", 502)
	viper.SetDefault("storage.modbus.unit_id", 1)
	viper.SetDefault("storage.modbus.timeout_millis", 1000)
	viper.SetDefault("storage.growatt.base_url", growatt.DefaultAPIBaseURL)
	viper.SetDefault("storage.growatt.timeout_millis", 10000)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "hassbridge")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("monitor.poll_interval_millis", 5000)
	viper.SetDefault("songpal.entries_file", "entries.yaml")
	viper.SetDefault("songpal.discovery_interval_seconds", 0)
	viper.SetDefault("songpal.discovery_timeout_millis", 2000)
	viper.SetDefault("songpal.probe_timeout_millis", 10000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.Storage.Growatt.Token = "*redacted*"
	slog.Info("Using", "config", cfg)
}
