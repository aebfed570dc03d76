package scenario

import "github.com/opsguard/opsguard-seeder/internal/models"

// Catalog holds the static reference tables a scenario is built from.
type Catalog struct {
	Services    []models.Service
	Hosts       []models.Host
	Deployments []models.Deployment
	ErrorCodes  []string
	URLPaths    []string
	Messages    map[models.LogLevel][]string

	// PrimaryService is degraded by the bad deployment; CascadeService fails
	// downstream of it.
	PrimaryService string
	CascadeService string

	// DeployHost receives the deployment marker event.
	DeployHost string
}

// DefaultCatalog returns the production-like tables used by the generator.
func DefaultCatalog() Catalog {
	return Catalog{
		Services: []models.Service{
			{Name: "payment-service", Tier: "critical", BaselineHourlyRev: 15000},
			{Name: "user-api", Tier: "high", BaselineHourlyRev: 5000},
			{Name: "product-catalog", Tier: "high", BaselineHourlyRev: 3000},
			{Name: "notification-service", Tier: "medium", BaselineHourlyRev: 500},
			{Name: "search-service", Tier: "medium", BaselineHourlyRev: 2000},
			{Name: "auth-service", Tier: "critical", BaselineHourlyRev: 8000},
			{Name: "order-processing", Tier: "critical", BaselineHourlyRev: 12000},
			{Name: "inventory-service", Tier: "high", BaselineHourlyRev: 4000},
		},
		Hosts: []models.Host{
			{Name: "prod-web-01", IP: "10.0.1.10", Region: "us-east-1", Lat: 39.0438, Lon: -77.4874},
			{Name: "prod-web-02", IP: "10.0.1.11", Region: "us-east-1", Lat: 39.0438, Lon: -77.4874},
			{Name: "prod-api-01", IP: "10.0.2.10", Region: "us-west-2", Lat: 45.8399, Lon: -119.7006},
			{Name: "prod-api-02", IP: "10.0.2.11", Region: "us-west-2", Lat: 45.8399, Lon: -119.7006},
			{Name: "prod-db-01", IP: "10.0.3.10", Region: "eu-west-1", Lat: 53.3331, Lon: -6.2489},
			{Name: "prod-worker-01", IP: "10.0.4.10", Region: "us-east-1", Lat: 39.0438, Lon: -77.4874},
		},
		Deployments: []models.Deployment{
			{Version: "v2.4.1", Status: models.DeploymentStable},
			{Version: "v2.4.2", Status: models.DeploymentProblematic},
			{Version: "v2.4.0", Status: models.DeploymentStable},
		},
		ErrorCodes: []string{
			"DB_CONN_TIMEOUT", "DB_QUERY_FAILED", "REDIS_UNAVAILABLE",
			"HTTP_502_BAD_GATEWAY", "HTTP_503_SERVICE_UNAVAILABLE",
			"HTTP_504_GATEWAY_TIMEOUT", "OOM_KILLED", "DISK_FULL",
			"SSL_HANDSHAKE_FAILED", "DNS_RESOLUTION_FAILED",
			"CONNECTION_POOL_EXHAUSTED", "RATE_LIMIT_EXCEEDED",
		},
		URLPaths: []string{
			"/api/v1/payments", "/api/v1/users", "/api/v1/orders",
			"/api/v1/products", "/api/v1/auth/login", "/api/v1/search",
			"/api/v1/notifications", "/api/v1/inventory", "/health",
		},
		Messages: map[models.LogLevel][]string{
			models.LevelInfo: {
				"Request processed successfully in {time}ms",
				"Health check passed for {service}",
				"Connection pool: {active}/{max} active connections",
				"Cache hit ratio: {ratio}%",
				"User {user_id} authenticated successfully",
				"Order {order_id} processed and confirmed",
			},
			models.LevelWarning: {
				"Slow query detected: {time}ms (threshold: 500ms)",
				"Connection pool nearing capacity: {active}/{max}",
				"Memory usage elevated: {usage}%",
				"Retry attempt {attempt}/3 for downstream call to {service}",
				"Response time degradation detected for {endpoint}",
			},
			models.LevelError: {
				"Failed to connect to database: {error_code} after {retries} retries",
				"Service {service} returned HTTP {status}: {error_code}",
				"Connection pool exhausted for {service}: {error_code}",
				"Request timeout after {time}ms for {endpoint}: {error_code}",
				"Out of memory: container {container} killed: {error_code}",
				"Disk write failed on {host}: {error_code}",
			},
			models.LevelCritical: {
				"CRITICAL: Service {service} is DOWN: {error_code}",
				"CRITICAL: Database primary failover detected: {error_code}",
				"CRITICAL: Payment processing halted: {error_code}",
				"CRITICAL: Authentication service unresponsive: {error_code}",
			},
		},
		PrimaryService: "payment-service",
		CascadeService: "order-processing",
		DeployHost:     "prod-api-01",
	}
}

// Release returns the first deployment version with the given status, or
// "unknown" when none matches.
func (c Catalog) Release(status string) string {
	for _, d := range c.Deployments {
		if d.Status == status {
			return d.Version
		}
	}
	return "unknown"
}

// StableVersion is the release healthy services run.
func (c Catalog) StableVersion() string { return c.Release(models.DeploymentStable) }

// BadVersion is the release rolled out at the deployment marker.
func (c Catalog) BadVersion() string { return c.Release(models.DeploymentProblematic) }

// Service looks up a catalog service by name.
func (c Catalog) Service(name string) (models.Service, bool) {
	for _, s := range c.Services {
		if s.Name == name {
			return s, true
		}
	}
	return models.Service{}, false
}

// Host looks up a catalog host by name.
func (c Catalog) Host(name string) (models.Host, bool) {
	for _, h := range c.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return models.Host{}, false
}

// bystanders returns the services not involved in the incident.
func (c Catalog) bystanders() []models.Service {
	out := make([]models.Service, 0, len(c.Services))
	for _, s := range c.Services {
		if s.Name == c.PrimaryService || s.Name == c.CascadeService {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c Catalog) isIncidentService(name string) bool {
	return name == c.PrimaryService || name == c.CascadeService
}
