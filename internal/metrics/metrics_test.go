package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTurnByOutcome(t *testing.T) {
	t.Parallel()

	m := MustNew(prometheus.NewRegistry())
	m.RecordTurn("primary")
	m.RecordTurn("primary")
	m.RecordTurn("fallback")

	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("primary")); got != 2 {
		t.Errorf("turns{primary} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("fallback")); got != 1 {
		t.Errorf("turns{fallback} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("failed")); got != 0 {
		t.Errorf("turns{failed} = %v, want 0", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordTurn("primary")
	m.RecordContinuationResolved()
	m.RecordContinuationRejected()
	m.RecordHistoriesCleared()
	m.RecordGuardRejected()
	m.RecordInboxDropped()

	if m.Handler() != nil {
		t.Error("nil Metrics returned a non-nil handler")
	}
}

func TestPrivateRegistryHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordContinuationResolved()

	h := m.Handler()
	if h == nil {
		t.Fatal("Handler returned nil for private registry")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "megan_continuation_resolved_total 1") {
		t.Errorf("scrape output missing counter:\n%s", body)
	}
}
