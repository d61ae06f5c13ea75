package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_satellite_active_connections",
		Help: "Number of connected controllers (0 or 1)",
	})

	totalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_satellite_connections_total",
		Help: "Total number of accepted controller connections",
	})

	messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_messages_total",
		Help: "Native API messages by direction and type",
	}, []string{"direction", "type"})

	// Detection metrics
	detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_detections_total",
		Help: "Wake and stop word detections",
	}, []string{"kind", "word"})

	modelLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_model_load_failures_total",
		Help: "Wake word models that failed to load",
	}, []string{"word"})

	// Conversation metrics
	turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_turns_total",
		Help: "Conversation turns by outcome",
	}, []string{"outcome"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_satellite_turn_duration_seconds",
		Help:    "Duration of conversation turns in seconds",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})

	satelliteState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_satellite_state",
		Help: "Current satellite state (0=stopped, 1=disconnected, 2=idle, 3=listening, 4=processing, 5=responding)",
	})

	timerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_timer_events_total",
		Help: "Timer events received from the controller",
	}, []string{"event"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_satellite_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"name"})

	statusClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_satellite_status_clients",
		Help: "Connected status websocket clients",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_satellite_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// RecordConnectionOpen records an accepted controller connection.
func RecordConnectionOpen() {
	activeConnections.Inc()
	totalConnections.Inc()
}

// RecordConnectionClosed records the end of a controller connection.
func RecordConnectionClosed() {
	activeConnections.Dec()
}

// RecordMessage counts one framed message; direction is "in" or "out".
func RecordMessage(direction, msgType string) {
	messages.WithLabelValues(direction, msgType).Inc()
}

// RecordDetection counts a wake ("wake") or stop ("stop") detection.
func RecordDetection(kind, word string) {
	detections.WithLabelValues(kind, word).Inc()
}

// RecordModelLoadFailure counts a word excluded because its model did not load.
func RecordModelLoadFailure(word string) {
	modelLoadFailures.WithLabelValues(word).Inc()
}

// SetSatelliteState publishes the numeric satellite state.
func SetSatelliteState(state int) {
	satelliteState.Set(float64(state))
}

// RecordTimerEvent counts a controller timer event.
func RecordTimerEvent(event string) {
	timerEvents.WithLabelValues(event).Inc()
}

// SetBreakerState publishes the state of the named circuit breaker.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// SetStatusClients publishes the number of status websocket clients.
func SetStatusClients(n int) {
	statusClients.Set(float64(n))
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func RecordAudioBytes(direction string, bytes int) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// TurnMetrics tracks metrics for a single conversation turn
type TurnMetrics struct {
	turnID    string
	startTime time.Time
	once      sync.Once
}

// NewTurnMetrics starts tracking a turn
func NewTurnMetrics(turnID string) *TurnMetrics {
	return &TurnMetrics{
		turnID:    turnID,
		startTime: time.Now(),
	}
}

// TurnID returns the id the turn was created with.
func (m *TurnMetrics) TurnID() string {
	return m.turnID
}

// End records the outcome and duration of the turn. Only the first call counts.
func (m *TurnMetrics) End(outcome string) {
	m.once.Do(func() {
		turns.WithLabelValues(outcome).Inc()
		turnDuration.Observe(time.Since(m.startTime).Seconds())
	})
}
