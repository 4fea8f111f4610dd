package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs maps every counter metric to its exported name and help text.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions issued by Save or LoginByToken."},
	{ID: goSession.MetricSessionChained, Name: "gosession_session_chained_total", Help: "Sessions issued by LoginByToken."},
	{ID: goSession.MetricSessionEvicted, Name: "gosession_session_evicted_total", Help: "Sessions evicted by a concurrency limit."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Sessions explicitly invalidated."},
	{ID: goSession.MetricSessionCascaded, Name: "gosession_session_cascaded_total", Help: "Descendant sessions removed by an invalidation."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions removed after their inactivity timeout."},
	{ID: goSession.MetricSessionCleared, Name: "gosession_session_cleared_total", Help: "Sessions removed by Clear or ForceLogout."},
	{ID: goSession.MetricVerifySuccess, Name: "gosession_verify_success_total", Help: "Tokens that verified."},
	{ID: goSession.MetricVerifyInvalidToken, Name: "gosession_verify_invalid_token_total", Help: "Tokens rejected for signature or claim errors."},
	{ID: goSession.MetricVerifyNotFound, Name: "gosession_verify_not_found_total", Help: "Authentic tokens whose session is gone."},
	{ID: goSession.MetricVerifyExpired, Name: "gosession_verify_expired_total", Help: "Authentic tokens whose session timed out."},
	{ID: goSession.MetricLoginByTokenRejected, Name: "gosession_login_by_token_rejected_total", Help: "LoginByToken calls with an inactive parent."},
	{ID: goSession.MetricReaperSweep, Name: "gosession_reaper_sweep_total", Help: "Reaper passes that removed at least one session."},
	{ID: goSession.MetricReaperError, Name: "gosession_reaper_error_total", Help: "Reaper passes that failed."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricVerifyLatency, Name: "gosession_verify_latency_seconds", Help: "Verify latency."},
}

const (
	// EventsDroppedName and EventsDroppedHelp describe the dispatcher drop counter.
	EventsDroppedName = "gosession_events_dropped_total"
	EventsDroppedHelp = "Lifecycle events dropped due to dispatcher backpressure."

	// SessionsName and SessionsHelp describe the stored-sessions gauge.
	SessionsName = "gosession_sessions"
	SessionsHelp = "Session records currently held, including expired ones awaiting the reaper."
)

// HistogramBounds are the finite upper bounds, in seconds, of the engine's
// latency buckets. The last engine bucket is +Inf.
var HistogramBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// BucketCount is the number of engine buckets, +Inf included.
const BucketCount = 8

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form exporters expect.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
