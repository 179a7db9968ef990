package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metric names recorded by the handlers and services
const (
	ReservasCreadas       = "reservas_creadas"
	ReservasExpiradas     = "reservas_expiradas"
	WebhooksRecibidos     = "webhooks_recibidos"
	WebhooksRechazados    = "webhooks_rechazados"
	ValidacionesExitosas  = "validaciones_exitosas"
	ValidacionesDuplicado = "validaciones_duplicado"
	ValidacionesInvalido  = "validaciones_invalido"
)

// Timer names
const (
	TiempoValidacion = "validacion_entrada"
	TiempoSweep      = "sweep_reservas"
)

// TimerSnapshot captures timing information for one timer
type TimerSnapshot struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

// Metrics is an in-process metrics collector
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*int64
	timers   map[string]*timer
	started  time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]*int64),
		timers:   make(map[string]*timer),
		started:  time.Now(),
	}
}

// IncrementCounter increments a named counter
func (m *Metrics) IncrementCounter(name string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		if c, ok = m.counters[name]; !ok {
			c = new(int64)
			m.counters[name] = c
		}
		m.mu.Unlock()
	}
	atomic.AddInt64(c, 1)
}

// RecordTiming records a duration for a named timer
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	ms := d.Milliseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[name]
	if !ok {
		t = &timer{minTimeMs: ms, maxTimeMs: ms}
		m.timers[name] = t
	}
	t.count++
	t.totalTimeMs += ms
	if ms < t.minTimeMs {
		t.minTimeMs = ms
	}
	if ms > t.maxTimeMs {
		t.maxTimeMs = ms
	}
}

// Snapshot returns all current metric values
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(c)
	}

	timers := make(map[string]TimerSnapshot, len(m.timers))
	for name, t := range m.timers {
		snap := TimerSnapshot{
			Count:       t.count,
			TotalTimeMs: t.totalTimeMs,
			MinTimeMs:   t.minTimeMs,
			MaxTimeMs:   t.maxTimeMs,
		}
		if t.count > 0 {
			snap.AverageTimeMs = float64(t.totalTimeMs) / float64(t.count)
		}
		timers[name] = snap
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(m.started).Seconds()),
		"counters":       counters,
		"timers":         timers,
	}
}
