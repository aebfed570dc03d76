package scenario

import (
	"time"

	"github.com/opsguard/opsguard-seeder/internal/models"
)

type pastIncident struct {
	daysAgo int
	record  models.IncidentRecord
}

var pastIncidents = []pastIncident{
	{
		daysAgo: 30,
		record: models.IncidentRecord{
			IncidentID:            "INC-2026-001",
			Title:                 "Payment Service Database Connection Pool Exhaustion",
			Description:           "Payment service experienced connection pool exhaustion causing cascading failures. Error rate spiked to 45% with DB_CONN_TIMEOUT errors. Root cause was a missing connection pool limit after database migration.",
			RootCause:             "Database connection pool configuration was reset during v2.3.5 migration. Max connections dropped from 100 to 10, causing pool exhaustion under normal load.",
			RootCauseCategory:     "configuration",
			ResolutionSteps:       "1. Identified connection pool settings in config. 2. Updated max_connections from 10 to 100. 3. Restarted payment-service pods. 4. Verified connection pool metrics normalized.",
			Severity:              "CRITICAL",
			Status:                "resolved",
			ServiceAffected:       "payment-service",
			ServicesImpacted:      []string{"payment-service", "order-processing"},
			ResolutionTimeMinutes: 45,
			RevenueImpactUSD:      25000,
			AssignedTo:            "sre-team",
			Tags:                  []string{"database", "connection-pool", "configuration", "payment"},
			DeploymentVersion:     "v2.3.5",
			PostMortem:            "Connection pool limits should be included in deployment validation checklist. Added automated config drift detection.",
		},
	},
	{
		daysAgo: 15,
		record: models.IncidentRecord{
			IncidentID:            "INC-2026-002",
			Title:                 "Auth Service Memory Leak After v2.4.0 Deployment",
			Description:           "Authentication service memory usage gradually increased after v2.4.0 deployment, reaching 95% after 6 hours. Users experienced slow logins and intermittent OOM_KILLED errors. JWT token cache was not properly evicting expired tokens.",
			RootCause:             "Memory leak in JWT token validation cache. New caching library introduced in v2.4.0 did not properly evict expired tokens, causing unbounded memory growth.",
			RootCauseCategory:     "deployment",
			ResolutionSteps:       "1. Identified memory growth pattern correlating with v2.4.0 deploy. 2. Analyzed heap dump showing JWT cache growing indefinitely. 3. Rolled back to v2.3.9. 4. Fixed cache eviction policy in hotfix v2.4.0a.",
			Severity:              "HIGH",
			Status:                "resolved",
			ServiceAffected:       "auth-service",
			ServicesImpacted:      []string{"auth-service", "user-api"},
			ResolutionTimeMinutes: 120,
			RevenueImpactUSD:      15000,
			AssignedTo:            "backend-team",
			Tags:                  []string{"memory-leak", "deployment", "jwt", "cache", "auth"},
			DeploymentVersion:     "v2.4.0",
			PostMortem:            "All new caching implementations must include eviction policy tests. Added memory usage alerting at 80% threshold.",
		},
	},
	{
		daysAgo: 45,
		record: models.IncidentRecord{
			IncidentID:            "INC-2026-003",
			Title:                 "Product Catalog Search Latency Spike Due to Index Corruption",
			Description:           "Product search response times increased from 50ms to 8000ms. Search service was returning HTTP 504 errors. Elasticsearch index for product catalog had segment corruption after a forced cluster restart.",
			RootCause:             "Elasticsearch product index segments were corrupted during emergency cluster restart. Index was not properly closed before restart.",
			RootCauseCategory:     "infrastructure",
			ResolutionSteps:       "1. Identified search latency spike in metrics. 2. Found ES cluster red health status. 3. Force-merged corrupted index segments. 4. Reindexed from primary data source. 5. Search latency normalized.",
			Severity:              "HIGH",
			Status:                "resolved",
			ServiceAffected:       "search-service",
			ServicesImpacted:      []string{"search-service", "product-catalog"},
			ResolutionTimeMinutes: 90,
			RevenueImpactUSD:      8500,
			AssignedTo:            "infrastructure-team",
			Tags:                  []string{"elasticsearch", "index-corruption", "search", "infrastructure"},
			DeploymentVersion:     "v2.3.2",
			PostMortem:            "Added graceful shutdown procedures. Created automated index health checks.",
		},
	},
	{
		daysAgo: 7,
		record: models.IncidentRecord{
			IncidentID:            "INC-2026-004",
			Title:                 "Order Processing Queue Backlog During Flash Sale",
			Description:           "Order processing service developed a massive queue backlog during flash sale event. Orders timing out after 30 seconds. Auto-scaling was capped at 5 replicas but needed 15. CPU usage hit 98% across all worker nodes.",
			RootCause:             "Horizontal Pod Autoscaler (HPA) max replicas was set to 5 for order-processing, insufficient for flash sale traffic (10x normal). CPU and memory thresholds were too conservative.",
			RootCauseCategory:     "capacity",
			ResolutionSteps:       "1. Detected order processing latency spike. 2. Identified HPA at max replicas with pending pods. 3. Manually scaled to 20 replicas. 4. Queue cleared in 15 minutes. 5. Updated HPA limits for future events.",
			Severity:              "CRITICAL",
			Status:                "resolved",
			ServiceAffected:       "order-processing",
			ServicesImpacted:      []string{"order-processing", "payment-service", "inventory-service"},
			ResolutionTimeMinutes: 30,
			RevenueImpactUSD:      50000,
			AssignedTo:            "platform-team",
			Tags:                  []string{"scaling", "capacity", "flash-sale", "hpa", "kubernetes"},
			DeploymentVersion:     "v2.4.1",
			PostMortem:            "Implemented predictive auto-scaling based on scheduled events. Added capacity planning checklist for marketing campaigns.",
		},
	},
	{
		daysAgo: 60,
		record: models.IncidentRecord{
			IncidentID:            "INC-2026-005",
			Title:                 "Notification Service SSL Certificate Expiry",
			Description:           "Notification service unable to send emails and push notifications. All outbound HTTPS connections failing with SSL_HANDSHAKE_FAILED errors. SSL certificate for notification APIs expired at midnight. Certificate auto-renewal had silently failed 3 days ago.",
			RootCause:             "SSL/TLS certificate expired. Auto-renewal via cert-manager failed due to DNS validation timeout. No alert was configured for certificate renewal failures.",
			RootCauseCategory:     "configuration",
			ResolutionSteps:       "1. Identified SSL_HANDSHAKE_FAILED errors in notification-service logs. 2. Checked certificate expiry and confirmed it had expired. 3. Manually renewed certificate via cert-manager. 4. Restarted notification-service pods. 5. Verified outbound connections restored.",
			Severity:              "MEDIUM",
			Status:                "resolved",
			ServiceAffected:       "notification-service",
			ServicesImpacted:      []string{"notification-service"},
			ResolutionTimeMinutes: 20,
			RevenueImpactUSD:      2000,
			AssignedTo:            "sre-team",
			Tags:                  []string{"ssl", "certificate", "expiry", "notification", "configuration"},
			DeploymentVersion:     "v2.2.8",
			PostMortem:            "Added certificate expiry monitoring with 30-day, 14-day, and 7-day alerts. Added redundant DNS validation endpoints.",
		},
	},
}

// HistoricalIncidents returns the fixed post-mortem catalog anchored at now.
// Each record resolves exactly ResolutionTimeMinutes after it was created.
func HistoricalIncidents(now time.Time) []models.IncidentRecord {
	out := make([]models.IncidentRecord, 0, len(pastIncidents))
	for _, p := range pastIncidents {
		rec := p.record
		rec.ServicesImpacted = append([]string(nil), p.record.ServicesImpacted...)
		rec.Tags = append([]string(nil), p.record.Tags...)
		rec.CreatedAt = now.Add(-time.Duration(p.daysAgo) * 24 * time.Hour)
		rec.ResolvedAt = rec.CreatedAt.Add(time.Duration(rec.ResolutionTimeMinutes) * time.Minute)
		out = append(out, rec)
	}
	return out
}
