package metrics

import (
	"net/http"
	"time"

	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/pkg/growatt"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hassbridge"

// Collector exposes bridge activity observed on the actor event stream.
type Collector struct {
	registry *prometheus.Registry

	telemetry      *prometheus.GaugeVec
	telemetryTime  prometheus.Gauge
	readErrors     prometheus.Counter
	modbusReadTime *prometheus.HistogramVec
	flowResults    *prometheus.CounterVec
	bridgeOnline   prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		telemetry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_telemetry",
			Help:      "Last value read from the storage device, by sensor key.",
		}, []string{"sensor"}),
		telemetryTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_telemetry_last_update_seconds",
			Help:      "Unix timestamp of the last telemetry value received.",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_read_errors_total",
			Help:      "Number of failed telemetry reads.",
		}),
		modbusReadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "modbus_read_duration_seconds",
			Help:      "Duration of Modbus register reads.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"function"}),
		flowResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_results_total",
			Help:      "Config and options flow step results.",
		}, []string{"handler", "source", "step", "type", "reason"}),
		bridgeOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bridge_online",
			Help:      "1 when the bridge reports itself online.",
		}),
	}
	c.registry.MustRegister(
		c.telemetry,
		c.telemetryTime,
		c.readErrors,
		c.modbusReadTime,
		c.flowResults,
		c.bridgeOnline,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ModbusInstrument records register read times into the read duration histogram.
func (c *Collector) ModbusInstrument() *growatt.ModbusInstrument {
	return &growatt.ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			c.modbusReadTime.WithLabelValues(fnName).Observe(readTime.Seconds())
		},
	}
}

func (c *Collector) Subscribe(es *eventstream.EventStream) *eventstream.Subscription {
	return es.Subscribe(c.Observe)
}

func (c *Collector) Observe(evt any) {
	switch e := evt.(type) {
	case domain.FloatSensorUpdateEvent:
		c.telemetry.WithLabelValues(e.Id).Set(e.Value)
		c.telemetryTime.SetToCurrentTime()
	case domain.BinarySensorUpdateEvent:
		c.telemetry.WithLabelValues(e.Id).Set(boolToFloat(e.Value))
	case domain.BridgeStateUpdateEvent:
		c.bridgeOnline.Set(boolToFloat(e.Value))
	case domain.TelemetryReadFailedEvent:
		c.readErrors.Inc()
	case domain.FlowResultEvent:
		c.flowResults.WithLabelValues(e.Handler, e.Source, e.StepID, e.Type, e.Reason).Inc()
	}
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
