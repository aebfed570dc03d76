package scenario

import (
	"fmt"
	"math"
	"time"

	"github.com/opsguard/opsguard-seeder/internal/models"
)

const memoryTotalBytes = 8_000_000_000

var (
	podSuffixes   = []string{"abc12", "def34", "ghi56"}
	httpErrors    = []int{500, 502, 503, 504}
	normalMethods = []string{"GET", "POST", "PUT"}
	errorMethods  = []string{"GET", "POST"}
	normalLevels  = []models.LogLevel{models.LevelInfo, models.LevelInfo, models.LevelInfo, models.LevelDebug}
)

func containerID(host models.Host, service models.Service) string {
	prefix := service.Name
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return "ctr-" + host.Name + "-" + prefix
}

func (g *Generator) podName(service models.Service, suffixes []string) string {
	return service.Name + "-" + pick(g.rnd, suffixes)
}

func (g *Generator) traceID() string {
	return fmt.Sprintf("trace-%d", g.randInt(100000, 999999))
}

func (g *Generator) normalMetric(ts time.Time, service models.Service, host models.Host) models.MetricRecord {
	return models.MetricRecord{
		Timestamp:            ts,
		ServiceName:          service.Name,
		ServiceEnvironment:   environment,
		HostName:             host.Name,
		HostIP:               host.IP,
		CPUPercent:           round2(g.uniform(15, 45)),
		MemoryPercent:        round2(g.uniform(40, 65)),
		MemoryUsedBytes:      g.randInt64(2_000_000_000, 6_000_000_000),
		MemoryTotalBytes:     memoryTotalBytes,
		DiskReadBytesPerSec:  round2(g.uniform(1000, 50000)),
		DiskWriteBytesPerSec: round2(g.uniform(500, 30000)),
		DiskPercent:          round2(g.uniform(30, 60)),
		Load1m:               round2(g.uniform(0.5, 2.0)),
		Load5m:               round2(g.uniform(0.5, 1.8)),
		Load15m:              round2(g.uniform(0.5, 1.5)),
		NetworkBytesIn:       g.randInt64(100_000, 500_000),
		NetworkBytesOut:      g.randInt64(200_000, 800_000),
		ConnectionsActive:    g.randInt(50, 200),
		ContainerID:          containerID(host, service),
		ContainerCPUPercent:  round2(g.uniform(10, 40)),
		ContainerMemPercent:  round2(g.uniform(35, 60)),
		KubernetesPodName:    g.podName(service, podSuffixes),
		KubernetesNodeName:   host.Name,
		GeoLocation:          host.Location(),
		GeoRegion:            host.Region,
	}
}

// incidentMetric starts from a healthy sample and overrides the saturation
// gauges with ranges scaled by severity. CPU is capped at 99%, memory at 98%.
func (g *Generator) incidentMetric(ts time.Time, service models.Service, host models.Host, severity float64) models.MetricRecord {
	m := g.normalMetric(ts, service, host)
	m.CPUPercent = round2(math.Min(99, 70+g.uniform(0, 25)*severity))
	m.MemoryPercent = round2(math.Min(98, 75+g.uniform(0, 20)*severity))
	m.Load1m = round2(5.0 + g.uniform(0, 10)*severity)
	m.Load5m = round2(4.0 + g.uniform(0, 8)*severity)
	m.ConnectionsActive = g.randInt(400, 900)
	m.ContainerCPUPercent = round2(math.Min(99, 65+g.uniform(0, 30)*severity))
	m.ContainerMemPercent = round2(math.Min(98, 70+g.uniform(0, 25)*severity))
	return m
}

func (g *Generator) normalLog(ts time.Time, service models.Service, host models.Host) models.LogRecord {
	message := render(pick(g.rnd, g.catalog.Messages[models.LevelInfo]), map[string]any{
		"time":     g.randInt(10, 200),
		"service":  service.Name,
		"active":   g.randInt(10, 50),
		"max":      100,
		"ratio":    g.randInt(80, 99),
		"user_id":  fmt.Sprintf("usr-%d", g.randInt(1000, 9999)),
		"order_id": fmt.Sprintf("ord-%d", g.randInt(100000, 999999)),
	})
	return models.LogRecord{
		Timestamp:          ts,
		ServiceName:        service.Name,
		ServiceEnvironment: environment,
		Level:              pick(g.rnd, normalLevels),
		Message:            message,
		HostName:           host.Name,
		HostIP:             host.IP,
		HTTPStatusCode:     200,
		HTTPMethod:         pick(g.rnd, normalMethods),
		URLPath:            pick(g.rnd, g.catalog.URLPaths),
		ResponseTimeMs:     round2(g.uniform(20, 300)),
		TraceID:            g.traceID(),
		DeploymentVersion:  g.catalog.StableVersion(),
		GeoLocation:        host.Location(),
		GeoRegion:          host.Region,
		ContainerID:        containerID(host, service),
		KubernetesPodName:  g.podName(service, podSuffixes[:2]),
	}
}

// errorLog emits an ERROR or CRITICAL event; level selects the template set.
func (g *Generator) errorLog(ts time.Time, service models.Service, host models.Host, version string, level models.LogLevel) models.LogRecord {
	errorCode := pick(g.rnd, g.catalog.ErrorCodes)
	templates := g.catalog.Messages[models.LevelError]
	if level == models.LevelCritical {
		templates = g.catalog.Messages[models.LevelCritical]
	}
	message := render(pick(g.rnd, templates), map[string]any{
		"error_code": errorCode,
		"service":    service.Name,
		"status":     pick(g.rnd, httpErrors),
		"retries":    g.randInt(1, 5),
		"time":       g.randInt(5000, 30000),
		"endpoint":   pick(g.rnd, g.catalog.URLPaths),
		"container":  "ctr-" + host.Name,
		"host":       host.Name,
	})
	deployedAt := ts
	return models.LogRecord{
		Timestamp:           ts,
		ServiceName:         service.Name,
		ServiceEnvironment:  environment,
		Level:               level,
		Message:             message,
		HostName:            host.Name,
		HostIP:              host.IP,
		ErrorCode:           errorCode,
		ErrorMessage:        "Service degradation detected: " + errorCode,
		HTTPStatusCode:      pick(g.rnd, httpErrors),
		HTTPMethod:          pick(g.rnd, errorMethods),
		URLPath:             pick(g.rnd, g.catalog.URLPaths),
		ResponseTimeMs:      round2(g.uniform(3000, 30000)),
		TraceID:             g.traceID(),
		DeploymentVersion:   version,
		DeploymentTimestamp: &deployedAt,
		GeoLocation:         host.Location(),
		GeoRegion:           host.Region,
		ContainerID:         containerID(host, service),
		KubernetesPodName:   g.podName(service, podSuffixes[:2]),
	}
}

func (g *Generator) warningLog(ts time.Time, service models.Service, host models.Host, severity float64) models.LogRecord {
	message := render(pick(g.rnd, g.catalog.Messages[models.LevelWarning]), map[string]any{
		"time":     g.randInt(2000, 15000),
		"active":   g.randInt(80, 100),
		"max":      100,
		"usage":    math.Round((75+severity*8)*10) / 10,
		"attempt":  g.randInt(1, 3),
		"service":  "database",
		"endpoint": pick(g.rnd, g.catalog.URLPaths),
	})
	return models.LogRecord{
		Timestamp:          ts,
		ServiceName:        service.Name,
		ServiceEnvironment: environment,
		Level:              models.LevelWarning,
		Message:            message,
		HostName:           host.Name,
		HostIP:             host.IP,
		ResponseTimeMs:     round2(g.uniform(1000, 10000*severity)),
		DeploymentVersion:  g.catalog.BadVersion(),
		GeoLocation:        host.Location(),
		GeoRegion:          host.Region,
	}
}

// businessMetric scales a healthy commercial snapshot by health, where 1.0 is
// fully healthy and 0.2 is a severe outage. SLA compliance holds above 0.7.
func (g *Generator) businessMetric(ts time.Time, service models.Service, health float64) models.BusinessRecord {
	count := int(float64(g.randInt(500, 1500)) * health)
	success := int(float64(count) * math.Min(1.0, g.uniform(0.85, 0.99)*health))
	if success > count {
		success = count
	}
	failure := count - success

	rate := 0.0
	if count > 0 {
		rate = round2(float64(success) / float64(count) * 100)
	}

	return models.BusinessRecord{
		Timestamp:          ts,
		ServiceName:        service.Name,
		ServiceTier:        service.Tier,
		TransactionCount:   count,
		TransactionSuccess: success,
		TransactionFailure: failure,
		SuccessRate:        rate,
		RevenueUSD:         round2(service.BaselineHourlyRev / 60 * health * g.uniform(0.8, 1.2)),
		BaselineHourlyUSD:  service.BaselineHourlyRev,
		ActiveUsers:        int(float64(g.randInt(200, 800)) * health),
		ActiveSessions:     int(float64(g.randInt(100, 400)) * health),
		ErrorRatePercent:   round2((1 - health) * 100 * g.uniform(0.8, 1.2)),
		AvgResponseTimeMs:  round2(g.uniform(50, 200) / health),
		P99ResponseTimeMs:  round2(g.uniform(200, 500) / health),
		SLACompliance:      health > 0.7,
	}
}
