// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the relay. Metrics satisfies relay.Observer.

package control

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
)

const namespace = "mavrelay"

// Metrics holds all relay collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	ConnectionsClosed *prometheus.CounterVec
	Bytes             *prometheus.CounterVec
	FramesDecoded     *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	FramesIgnored     *prometheus.CounterVec
	Responses         prometheus.Counter
	PartialWrites     prometheus.Counter
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Connections currently registered with the event loop.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connections accepted or dialed.",
		}),
		ConnectionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Connections torn down, by reason.",
		}, []string{"reason"}),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Socket bytes moved, by direction.",
		}, []string{"direction"}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "decoded_total",
			Help:      "Checksum-valid frames emitted by the parser, by message.",
		}, []string{"msg"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "dropped_total",
			Help:      "Malformed frames discarded by the parser, by reason.",
		}, []string{"reason"}),
		FramesIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "ignored_total",
			Help:      "Valid frames of a type the relay does not answer, by message.",
		}, []string{"msg"}),
		Responses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Response frames scheduled for write.",
		}),
		PartialWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_writes_total",
			Help:      "Writes that flushed only part of a buffer and were retried.",
		}),
	}
	m.reg.MustRegister(
		m.ConnectionsActive, m.ConnectionsTotal, m.ConnectionsClosed, m.Bytes,
		m.FramesDecoded, m.FramesDropped, m.FramesIgnored, m.Responses, m.PartialWrites,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// TrackPool exports buffer pool accounting as gauges.
func (m *Metrics) TrackPool(p api.BufferPool) {
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buffers",
			Name:      "in_use",
			Help:      "Owned buffers acquired and not yet released.",
		}, func() float64 { return float64(p.Stats().InUse) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "buffers",
			Name:      "misuse_total",
			Help:      "Release or transfer attempts on dead buffer handles.",
		}, func() float64 { return float64(p.Stats().Misuse) }),
	)
}

func msgLabel(id uint32) string {
	if e, ok := mavlink.LookupMessage(id); ok {
		return e.Name
	}
	return strconv.FormatUint(uint64(id), 10)
}

func (m *Metrics) OnConnOpened() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

func (m *Metrics) OnConnClosed(reason string) {
	m.ConnectionsActive.Dec()
	m.ConnectionsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) OnBytesRead(n int)    { m.Bytes.WithLabelValues("in").Add(float64(n)) }
func (m *Metrics) OnBytesWritten(n int) { m.Bytes.WithLabelValues("out").Add(float64(n)) }

func (m *Metrics) OnFrameDecoded(id uint32) { m.FramesDecoded.WithLabelValues(msgLabel(id)).Inc() }
func (m *Metrics) OnUnknownType(id uint32)  { m.FramesIgnored.WithLabelValues(msgLabel(id)).Inc() }

func (m *Metrics) OnFrameDropped(r mavlink.DropReason) {
	m.FramesDropped.WithLabelValues(r.String()).Inc()
}

func (m *Metrics) OnResponseScheduled() { m.Responses.Inc() }
func (m *Metrics) OnPartialWrite()      { m.PartialWrites.Inc() }
