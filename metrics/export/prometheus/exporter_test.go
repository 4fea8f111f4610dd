package prometheus

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
	sessions int
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventsDropped() uint64                      { return f.dropped }
func (f fakeSource) SessionCount() int                          { return f.sessions }

func scrape(t *testing.T, exp *Exporter) (string, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Body)
	return string(body), rec
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollector(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no samples for disabled metrics, got %d", n)
	}
}

func TestCollectCounter(t *testing.T) {
	c := NewCollector(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{goSession.MetricSessionCreated: 7},
		},
		dropped:  2,
		sessions: 4,
	})

	expected := `
# HELP gosession_session_created_total Sessions issued by Save or LoginByToken.
# TYPE gosession_session_created_total counter
gosession_session_created_total 7
# HELP gosession_events_dropped_total Lifecycle events dropped due to dispatcher backpressure.
# TYPE gosession_events_dropped_total counter
gosession_events_dropped_total 2
# HELP gosession_sessions Session records currently held, including expired ones awaiting the reaper.
# TYPE gosession_sessions gauge
gosession_sessions 4
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gosession_session_created_total", "gosession_events_dropped_total", "gosession_sessions"); err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestHandlerRendersHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{goSession.MetricVerifySuccess: 1},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out, rec := scrape(t, exp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	for _, want := range []string{
		`gosession_verify_success_total 1`,
		`gosession_verify_latency_seconds_bucket{le="0.001"} 15`,
		`gosession_verify_latency_seconds_bucket{le="+Inf"} 36`,
		`gosession_verify_latency_seconds_count 36`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestExporterOverEngine(t *testing.T) {
	cfg := goSession.DefaultConfig()
	cfg.JWT.SigningMethod = "ed25519"
	cfg.Session.ReapInterval = time.Hour
	e, err := goSession.New().
		WithConfig(cfg).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	defer e.Close()

	token, err := e.Save(context.Background(), goSession.Claims{TenantCode: "acme", AccountID: "u1"}, 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	e.Verify(context.Background(), token)
	e.Verify(context.Background(), "bogus")

	out, _ := scrape(t, NewExporter(e))
	for _, want := range []string{
		"gosession_session_created_total 1",
		"gosession_verify_success_total 1",
		"gosession_verify_invalid_token_total 1",
		"gosession_verify_latency_seconds_count 2",
		"gosession_sessions 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}
