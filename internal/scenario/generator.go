package scenario

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/opsguard/opsguard-seeder/internal/models"
)

// Timeline boundaries, expressed in minutes before the reference instant.
const (
	NormalStartMinute     = 120
	DeployMinute          = 45
	EscalationStartMinute = 40
	BusinessInterval      = 5
	// AffectedHosts is how many catalog hosts take part in the escalation.
	AffectedHosts = 3
)

// Jitter bounds in seconds, applied symmetrically around the sample minute.
const (
	MetricJitter      = 10
	NormalLogJitter   = 25
	BusinessJitter    = 5
	IncidentLogJitter = 20
)

const environment = "production"

// Option customises a Generator.
type Option func(*Generator)

// WithRand injects the random source. Scenarios generated from sources with
// the same seed and the same reference instant are identical.
func WithRand(rnd *rand.Rand) Option {
	return func(g *Generator) {
		if rnd != nil {
			g.rnd = rnd
		}
	}
}

// WithNow pins the reference instant T-0.
func WithNow(now time.Time) Option {
	return func(g *Generator) {
		if !now.IsZero() {
			g.now = now
		}
	}
}

// WithCatalog replaces the reference tables.
func WithCatalog(c Catalog) Option {
	return func(g *Generator) { g.catalog = c }
}

// WithInclusiveNormalBoundary makes the normal phase run through T-45
// instead of stopping at T-46.
func WithInclusiveNormalBoundary() Option {
	return func(g *Generator) { g.normalEnd = DeployMinute }
}

// WithLogger sets the logger used for phase summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator synthesises a three-phase incident scenario: normal operation,
// a bad deployment, then an escalating failure of the primary service that
// cascades into a downstream one.
type Generator struct {
	catalog   Catalog
	rnd       *rand.Rand
	now       time.Time
	normalEnd int
	logger    *slog.Logger
}

// NewGenerator constructs a Generator. Without options it uses the default
// catalog, a time-seeded random source and the current UTC time.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		catalog:   DefaultCatalog(),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now().UTC(),
		normalEnd: DeployMinute + 1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the reference instant of the scenario.
func (g *Generator) Now() time.Time { return g.now }

// NormalMinutes returns how many one-minute samples the normal phase emits.
func (g *Generator) NormalMinutes() int { return NormalStartMinute - g.normalEnd + 1 }

// SeverityFactor grows linearly from 1.0 at T-40 to 3.0 at T-0.
func SeverityFactor(minutesAgo int) float64 {
	return 1.0 + float64(EscalationStartMinute-minutesAgo)/20.0
}

// HealthFactor maps a severity factor onto the business health scale,
// never dropping below 0.2.
func HealthFactor(severity float64) float64 {
	return math.Max(0.2, 1.0-(severity-1.0)/3.0)
}

// Generate runs all phases and returns the four collections.
func (g *Generator) Generate() models.Dataset {
	var ds models.Dataset
	ds.Incidents = HistoricalIncidents(g.now)

	g.normalPhase(&ds)
	ds.Logs = append(ds.Logs, g.deploymentMarker())
	g.escalationPhase(&ds)

	g.logger.Debug("scenario generated",
		slog.Time("now", g.now),
		slog.Int("logs", len(ds.Logs)),
		slog.Int("metrics", len(ds.Metrics)),
		slog.Int("business_metrics", len(ds.Business)),
		slog.Int("incidents_history", len(ds.Incidents)),
	)
	return ds
}

func (g *Generator) normalPhase(ds *models.Dataset) {
	for minutesAgo := NormalStartMinute; minutesAgo >= g.normalEnd; minutesAgo-- {
		ts := g.at(minutesAgo, MetricJitter)
		service := g.catalog.Services[g.rnd.Intn(len(g.catalog.Services))]
		host := g.catalog.Hosts[g.rnd.Intn(len(g.catalog.Hosts))]

		ds.Metrics = append(ds.Metrics, g.normalMetric(ts, service, host))

		for n := g.randInt(3, 5); n > 0; n-- {
			ds.Logs = append(ds.Logs, g.normalLog(g.at(minutesAgo, NormalLogJitter), service, host))
		}

		if minutesAgo%BusinessInterval == 0 {
			for _, svc := range g.catalog.Services {
				ds.Business = append(ds.Business, g.businessMetric(g.at(minutesAgo, BusinessJitter), svc, 1.0))
			}
		}
	}
}

func (g *Generator) deploymentMarker() models.LogRecord {
	ts := g.at(DeployMinute, 0)
	host, _ := g.catalog.Host(g.catalog.DeployHost)
	return models.LogRecord{
		Timestamp:           ts,
		ServiceName:         g.catalog.PrimaryService,
		ServiceEnvironment:  environment,
		Level:               models.LevelInfo,
		Message:             "Deployment started: " + g.catalog.BadVersion() + ": updating " + g.catalog.PrimaryService + " to latest build",
		HostName:            host.Name,
		HostIP:              host.IP,
		HTTPStatusCode:      200,
		HTTPMethod:          "POST",
		URLPath:             "/deploy",
		ResponseTimeMs:      150,
		DeploymentVersion:   g.catalog.BadVersion(),
		DeploymentTimestamp: &ts,
		GeoLocation:         host.Location(),
		GeoRegion:           host.Region,
	}
}

func (g *Generator) escalationPhase(ds *models.Dataset) {
	primary, _ := g.catalog.Service(g.catalog.PrimaryService)
	cascade, _ := g.catalog.Service(g.catalog.CascadeService)
	bystanders := g.catalog.bystanders()
	hosts := g.catalog.Hosts
	if len(hosts) > AffectedHosts {
		hosts = hosts[:AffectedHosts]
	}

	for minutesAgo := EscalationStartMinute; minutesAgo >= 1; minutesAgo-- {
		severity := SeverityFactor(minutesAgo)

		for _, host := range hosts {
			ts := g.at(minutesAgo, MetricJitter)

			if g.rnd.Float64() < 0.7 {
				ds.Metrics = append(ds.Metrics, g.incidentMetric(ts, primary, host, severity))
			}
			if g.rnd.Float64() < 0.4 {
				ds.Metrics = append(ds.Metrics, g.incidentMetric(ts, cascade, host, severity*0.6))
			}
			if len(bystanders) > 0 {
				other := bystanders[g.rnd.Intn(len(bystanders))]
				ds.Metrics = append(ds.Metrics, g.normalMetric(ts, other, host))
			}

			errorCount := int(1 + severity*2)
			for i := 0; i < errorCount; i++ {
				level := models.LevelError
				if severity > 2.5 && g.rnd.Float64() < 0.3 {
					level = models.LevelCritical
				}
				ds.Logs = append(ds.Logs, g.errorLog(g.at(minutesAgo, IncidentLogJitter), primary, host, g.catalog.BadVersion(), level))
			}

			if severity > 1.5 && g.rnd.Float64() < 0.5 {
				ds.Logs = append(ds.Logs, g.errorLog(g.at(minutesAgo, IncidentLogJitter), cascade, host, g.catalog.StableVersion(), models.LevelError))
			}

			if g.rnd.Float64() < 0.5 {
				ds.Logs = append(ds.Logs, g.warningLog(g.at(minutesAgo, IncidentLogJitter), primary, host, severity))
			}
		}

		if minutesAgo%BusinessInterval == 0 {
			health := HealthFactor(severity)
			for _, svc := range g.catalog.Services {
				hf := health
				if !g.catalog.isIncidentService(svc.Name) {
					hf = g.uniform(0.9, 1.0)
				}
				ds.Business = append(ds.Business, g.businessMetric(g.at(minutesAgo, BusinessJitter), svc, hf))
			}
		}
	}
}

// at returns T-minutesAgo shifted by a uniform whole-second jitter in
// [-jitter, +jitter].
func (g *Generator) at(minutesAgo, jitter int) time.Time {
	ts := g.now.Add(-time.Duration(minutesAgo) * time.Minute)
	if jitter > 0 {
		ts = ts.Add(time.Duration(g.randInt(-jitter, jitter)) * time.Second)
	}
	return ts
}

// randInt returns a uniform integer in [lo, hi].
func (g *Generator) randInt(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *Generator) randInt64(lo, hi int64) int64 {
	return lo + g.rnd.Int63n(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func pick[T any](rnd *rand.Rand, values []T) T {
	return values[rnd.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
