package metric

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// value reads the current value of a single counter or gauge.
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if c := pb.GetCounter(); c != nil {
		return c.GetValue()
	}
	return pb.GetGauge().GetValue()
}

type fixedCount int

func (f fixedCount) Len() int { return int(f) }

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry

	r.ObserveCommand("GET", false, time.Millisecond)
	r.ConnOpened()
	r.ConnClosed()
	r.ProtocolError()
	r.SnapshotSaved(nil, 10)
	r.SnapshotLoaded(10)
	r.MustRegister(NewCollector(fixedCount(1)))

	if r.Handler() == nil {
		t.Error("Handler() on nil Registry returned nil")
	}
	if r.Gatherer() == nil {
		t.Error("Gatherer() on nil Registry returned nil")
	}
}

func TestRegistry_ObserveCommand(t *testing.T) {
	r := NewRegistry()

	r.ObserveCommand("SET", false, time.Millisecond)
	r.ObserveCommand("SET", false, time.Millisecond)
	r.ObserveCommand("SET", true, time.Millisecond)

	if got := value(t, r.CommandsTotal.WithLabelValues("SET", StatusOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := value(t, r.CommandsTotal.WithLabelValues("SET", StatusError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRegistry_Connections(t *testing.T) {
	r := NewRegistry()

	r.ConnOpened()
	r.ConnOpened()
	r.ConnClosed()
	r.ProtocolError()

	if got := value(t, r.ConnectionsActive); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	if got := value(t, r.ConnectionsTotal); got != 2 {
		t.Errorf("total = %v, want 2", got)
	}
	if got := value(t, r.ProtocolErrors); got != 1 {
		t.Errorf("protocol errors = %v, want 1", got)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()

	r.SnapshotSaved(nil, 2048)
	r.SnapshotSaved(errors.New("disk full"), 0)

	if got := value(t, r.SnapshotSaves); got != 1 {
		t.Errorf("saves = %v, want 1", got)
	}
	if got := value(t, r.SnapshotFails); got != 1 {
		t.Errorf("fails = %v, want 1", got)
	}
	if got := value(t, r.SnapshotBytes); got != 2048 {
		t.Errorf("bytes = %v, want 2048", got)
	}
}

func TestCollector_Keys(t *testing.T) {
	ch := make(chan prometheus.Metric, 1)
	NewCollector(fixedCount(42)).Collect(ch)
	if got := value(t, <-ch); got != 42 {
		t.Errorf("keys = %v, want 42", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(fixedCount(3)))
	r.ObserveCommand("PING", false, time.Microsecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"krishnadb_keys 3",
		`krishnadb_commands_total{command="PING",status="ok"} 1`,
		"krishnadb_connections_active 0",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
