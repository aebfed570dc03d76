package scenario

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/opsguard/opsguard-seeder/internal/models"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestGenerator(seed int64, opts ...Option) *Generator {
	base := []Option{WithRand(rand.New(rand.NewSource(seed))), WithNow(testNow)}
	return NewGenerator(append(base, opts...)...)
}

func minutesBefore(m int) time.Time {
	return testNow.Add(-time.Duration(m) * time.Minute)
}

func within(ts time.Time, newestMinute, oldestMinute, jitterSeconds int) bool {
	lo := minutesBefore(oldestMinute).Add(-time.Duration(jitterSeconds) * time.Second)
	hi := minutesBefore(newestMinute).Add(time.Duration(jitterSeconds) * time.Second)
	return !ts.Before(lo) && !ts.After(hi)
}

func TestSeverityFactor(t *testing.T) {
	if got := SeverityFactor(40); got != 1.0 {
		t.Fatalf("expected 1.0 at T-40, got %v", got)
	}
	if got := SeverityFactor(1); math.Abs(got-2.95) > 1e-9 {
		t.Fatalf("expected 2.95 at T-1, got %v", got)
	}
	prev := SeverityFactor(EscalationStartMinute)
	for m := EscalationStartMinute - 1; m >= 1; m-- {
		cur := SeverityFactor(m)
		if cur < prev {
			t.Fatalf("severity decreased at T-%d: %v < %v", m, cur, prev)
		}
		prev = cur
	}
}

func TestHealthFactorFloor(t *testing.T) {
	if got := HealthFactor(1.0); got != 1.0 {
		t.Fatalf("expected full health at severity 1, got %v", got)
	}
	if got := HealthFactor(10); got != 0.2 {
		t.Fatalf("expected floor of 0.2, got %v", got)
	}
	if got := HealthFactor(2.5); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 at severity 2.5, got %v", got)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	first := newTestGenerator(42).Generate()
	second := newTestGenerator(42).Generate()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical datasets for identical seed and now")
	}

	other := newTestGenerator(7).Generate()
	if reflect.DeepEqual(first.Metrics, other.Metrics) {
		t.Fatalf("expected different metrics for a different seed")
	}
}

func TestGenerateSingleDeploymentMarker(t *testing.T) {
	ds := newTestGenerator(1).Generate()
	var markers []models.LogRecord
	for _, l := range ds.Logs {
		if l.URLPath == "/deploy" {
			markers = append(markers, l)
		}
	}
	if len(markers) != 1 {
		t.Fatalf("expected one deployment marker, got %d", len(markers))
	}
	m := markers[0]
	if !m.Timestamp.Equal(minutesBefore(DeployMinute)) {
		t.Fatalf("marker should sit exactly at T-45, got %s", m.Timestamp)
	}
	if m.DeploymentVersion != "v2.4.2" || m.ServiceName != "payment-service" {
		t.Fatalf("unexpected marker payload: %+v", m)
	}
	if m.HostName != "prod-api-01" || m.GeoRegion != "us-west-2" {
		t.Fatalf("unexpected marker host: %+v", m)
	}
}

func TestDeploymentVersionsComeFromCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	if catalog.StableVersion() != "v2.4.1" || catalog.BadVersion() != "v2.4.2" {
		t.Fatalf("unexpected default releases: %s %s", catalog.StableVersion(), catalog.BadVersion())
	}

	catalog.Deployments = []models.Deployment{
		{Version: "v3.0.0", Status: models.DeploymentProblematic},
		{Version: "v2.9.9", Status: models.DeploymentStable},
	}
	ds := newTestGenerator(5, WithCatalog(catalog)).Generate()

	for _, l := range ds.Logs {
		if l.URLPath == "/deploy" && l.DeploymentVersion != "v3.0.0" {
			t.Fatalf("marker should carry the problematic release, got %s", l.DeploymentVersion)
		}
		if l.ServiceName == "order-processing" && l.Level.AtLeast(models.LevelError) && l.DeploymentVersion != "v2.9.9" {
			t.Fatalf("cascade errors should carry the stable release, got %s", l.DeploymentVersion)
		}
	}
	if (Catalog{}).BadVersion() != "unknown" {
		t.Fatalf("expected unknown release for empty catalog")
	}
}

func TestNormalPhaseBoundary(t *testing.T) {
	cases := []struct {
		name    string
		opts    []Option
		minutes int
		oldest  int
		newest  int
	}{
		{name: "exclusive", minutes: 75, oldest: 120, newest: 46},
		{name: "inclusive", opts: []Option{WithInclusiveNormalBoundary()}, minutes: 76, oldest: 120, newest: 45},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGenerator(3, tc.opts...)
			if g.NormalMinutes() != tc.minutes {
				t.Fatalf("expected %d normal minutes, got %d", tc.minutes, g.NormalMinutes())
			}
			ds := g.Generate()

			normalMetrics := 0
			for _, m := range ds.Metrics {
				if within(m.Timestamp, tc.newest, tc.oldest, MetricJitter) && m.CPUPercent <= 45 {
					normalMetrics++
				}
			}
			// Escalation metrics all sit at T-40 or later and never overlap the normal window.
			if normalMetrics != tc.minutes {
				t.Fatalf("expected %d normal metric samples, got %d", tc.minutes, normalMetrics)
			}

			businessBatches := 0
			for m := tc.oldest; m >= tc.newest; m-- {
				if m%BusinessInterval == 0 {
					businessBatches++
				}
			}
			businessBatches += EscalationStartMinute / BusinessInterval
			want := businessBatches * len(DefaultCatalog().Services)
			if len(ds.Business) != want {
				t.Fatalf("expected %d business records, got %d", want, len(ds.Business))
			}
		})
	}
}

func TestTimestampsWithinPhaseWindows(t *testing.T) {
	ds := newTestGenerator(11).Generate()

	for _, m := range ds.Metrics {
		if !within(m.Timestamp, 1, NormalStartMinute, MetricJitter) {
			t.Fatalf("metric timestamp %s outside scenario window", m.Timestamp)
		}
	}
	for _, l := range ds.Logs {
		switch l.Level {
		case models.LevelError, models.LevelCritical, models.LevelWarning:
			if !within(l.Timestamp, 1, EscalationStartMinute, IncidentLogJitter) {
				t.Fatalf("incident log %s outside escalation window", l.Timestamp)
			}
		default:
			if !within(l.Timestamp, DeployMinute, NormalStartMinute, NormalLogJitter) {
				t.Fatalf("normal log %s outside normal window", l.Timestamp)
			}
		}
	}
	for _, b := range ds.Business {
		if !within(b.Timestamp, 5, NormalStartMinute, BusinessJitter) {
			t.Fatalf("business record %s outside window", b.Timestamp)
		}
	}
}

func TestBusinessMetricInvariants(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		ds := newTestGenerator(seed).Generate()
		for _, b := range ds.Business {
			if b.TransactionSuccess+b.TransactionFailure != b.TransactionCount {
				t.Fatalf("success+failure != count: %+v", b)
			}
			if b.SuccessRate < 0 || b.SuccessRate > 100 {
				t.Fatalf("success rate out of range: %v", b.SuccessRate)
			}
			if b.TransactionCount == 0 && b.SuccessRate != 0 {
				t.Fatalf("expected zero rate for empty count: %+v", b)
			}
		}
	}
}

func TestBusinessHealthDuringEscalation(t *testing.T) {
	ds := newTestGenerator(5).Generate()
	for _, b := range ds.Business {
		if b.Timestamp.After(minutesBefore(EscalationStartMinute).Add(BusinessJitter * time.Second)) {
			continue
		}
		if !b.SLACompliance {
			t.Fatalf("normal phase business record should be SLA compliant: %+v", b)
		}
	}

	// By T-5 the incident services run at a health of about 0.42, below the SLA threshold.
	late := minutesBefore(5)
	for _, b := range ds.Business {
		if b.Timestamp.Before(late.Add(-BusinessJitter*time.Second)) || b.Timestamp.After(late.Add(BusinessJitter*time.Second)) {
			continue
		}
		incident := b.ServiceName == "payment-service" || b.ServiceName == "order-processing"
		if incident && b.SLACompliance {
			t.Fatalf("incident service should breach SLA late in the incident: %+v", b)
		}
		if !incident && !b.SLACompliance {
			t.Fatalf("bystander service should stay compliant: %+v", b)
		}
	}
}

func TestIncidentMetricsClamped(t *testing.T) {
	g := newTestGenerator(9)
	svc, _ := g.catalog.Service("payment-service")
	host := g.catalog.Hosts[0]
	for i := 0; i < 500; i++ {
		m := g.incidentMetric(testNow, svc, host, 3.0)
		if m.CPUPercent > 99 || m.ContainerCPUPercent > 99 {
			t.Fatalf("cpu not clamped: %+v", m)
		}
		if m.MemoryPercent > 98 || m.ContainerMemPercent > 98 {
			t.Fatalf("memory not clamped: %+v", m)
		}
		if m.CPUPercent < 70 || m.ConnectionsActive < 400 {
			t.Fatalf("incident metric not degraded: %+v", m)
		}
	}
}

func TestEscalationLogsOnlyCriticalLate(t *testing.T) {
	ds := newTestGenerator(21).Generate()
	// Critical logs need severity > 2.5, i.e. fewer than 10 minutes before T-0.
	cutoff := minutesBefore(10).Add(IncidentLogJitter * time.Second)
	for _, l := range ds.Logs {
		if l.Level == models.LevelCritical && !l.Timestamp.After(cutoff) {
			t.Fatalf("critical log emitted too early: %s", l.Timestamp)
		}
		if l.Level.AtLeast(models.LevelError) && l.ServiceName == "payment-service" && l.DeploymentVersion != "v2.4.2" {
			t.Fatalf("primary service errors must carry the bad version: %+v", l)
		}
	}
}

func TestHistoricalIncidents(t *testing.T) {
	incidents := HistoricalIncidents(testNow)
	if len(incidents) != 5 {
		t.Fatalf("expected five historical incidents, got %d", len(incidents))
	}
	for _, inc := range incidents {
		want := inc.CreatedAt.Add(time.Duration(inc.ResolutionTimeMinutes) * time.Minute)
		if !inc.ResolvedAt.Equal(want) {
			t.Fatalf("%s resolved_at mismatch: %s != %s", inc.IncidentID, inc.ResolvedAt, want)
		}
		if inc.ResolvedAt.Before(inc.CreatedAt) {
			t.Fatalf("%s resolved before created", inc.IncidentID)
		}
	}

	incidents[0].Tags[0] = "mutated"
	if HistoricalIncidents(testNow)[0].Tags[0] == "mutated" {
		t.Fatalf("historical incidents share backing arrays between calls")
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := render("{service} failed with {error_code}", map[string]any{"service": "checkout"})
	if got != "checkout failed with {error_code}" {
		t.Fatalf("unexpected render output: %q", got)
	}
}
