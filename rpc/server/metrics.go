package server

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics holds the Prometheus metrics of one server.
// All methods are no-ops on a nil receiver.
type serverMetrics struct {
	set *metrics.Set

	getCommands     *metrics.Counter
	setCommands     *metrics.Counter
	unknownCommands *metrics.Counter
	getHits         *metrics.Counter
	getMisses       *metrics.Counter
	duration        *metrics.Histogram

	connectionsAccepted *metrics.Counter
	connectionErrors    *metrics.Counter
	connectionsActive   atomic.Int64
}

// newServerMetrics registers all metrics in a new set.
// The key gauge calls GetInfo on every scrape.
func newServerMetrics(s store.IStore) *serverMetrics {
	set := metrics.NewSet()
	m := &serverMetrics{
		set:                 set,
		getCommands:         set.NewCounter(`mkv_commands_total{cmd="get"}`),
		setCommands:         set.NewCounter(`mkv_commands_total{cmd="set"}`),
		unknownCommands:     set.NewCounter(`mkv_commands_total{cmd="unknown"}`),
		getHits:             set.NewCounter("mkv_get_hits_total"),
		getMisses:           set.NewCounter("mkv_get_misses_total"),
		duration:            set.NewHistogram("mkv_command_duration_seconds"),
		connectionsAccepted: set.NewCounter("mkv_connections_accepted_total"),
		connectionErrors:    set.NewCounter("mkv_connection_errors_total"),
	}

	set.NewGauge("mkv_connections_active", func() float64 {
		return float64(m.connectionsActive.Load())
	})
	if s != nil {
		set.NewGauge("mkv_keys", func() float64 {
			info, err := s.GetInfo()
			if err != nil {
				return 0
			}
			return float64(info.Keys)
		})
	}
	return m
}

func (m *serverMetrics) countCommand(t common.CommandType) {
	if m == nil {
		return
	}
	switch t {
	case common.CmdTGet:
		m.getCommands.Inc()
	case common.CmdTSet:
		m.setCommands.Inc()
	default:
		m.unknownCommands.Inc()
	}
}

func (m *serverMetrics) countLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.getHits.Inc()
	} else {
		m.getMisses.Inc()
	}
}

func (m *serverMetrics) observeDuration(start time.Time) {
	if m == nil {
		return
	}
	m.duration.UpdateDuration(start)
}

// connState implements transport.ConnStateFunc
func (m *serverMetrics) connState(_ net.Addr, state transport.ConnState, _ error) {
	if m == nil {
		return
	}
	switch state {
	case transport.ConnStateOpened:
		m.connectionsAccepted.Inc()
		m.connectionsActive.Add(1)
	case transport.ConnStateClosed:
		m.connectionsActive.Add(-1)
	case transport.ConnStateFailed:
		m.connectionErrors.Inc()
		m.connectionsActive.Add(-1)
	}
}

// ServeHTTP writes all metrics in the Prometheus text format
func (m *serverMetrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	m.set.WritePrometheus(w)
}
