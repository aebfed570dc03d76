package models

import "time"

// IncidentRecord is a resolved post-mortem kept as reference data for
// similarity search.
type IncidentRecord struct {
	IncidentID            string    `json:"incident_id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	RootCause             string    `json:"root_cause"`
	RootCauseCategory     string    `json:"root_cause_category"`
	ResolutionSteps       string    `json:"resolution_steps"`
	Severity              string    `json:"severity"`
	Status                string    `json:"status"`
	ServiceAffected       string    `json:"service_affected"`
	ServicesImpacted      []string  `json:"services_impacted"`
	ResolutionTimeMinutes int       `json:"resolution_time_minutes"`
	RevenueImpactUSD      float64   `json:"revenue_impact_usd"`
	CreatedAt             time.Time `json:"created_at"`
	ResolvedAt            time.Time `json:"resolved_at"`
	AssignedTo            string    `json:"assigned_to"`
	Tags                  []string  `json:"tags"`
	DeploymentVersion     string    `json:"deployment_version"`
	PostMortem            string    `json:"post_mortem"`
}

// Service is a catalog entry for a simulated microservice.
type Service struct {
	Name              string
	Tier              string
	BaselineHourlyRev float64
}

// Host is a catalog entry for a simulated production node.
type Host struct {
	Name   string
	IP     string
	Region string
	Lat    float64
	Lon    float64
}

// Location returns the host coordinates as a geo point.
func (h Host) Location() GeoPoint {
	return GeoPoint{Lat: h.Lat, Lon: h.Lon}
}

// Deployment describes a released build of the incident service.
type Deployment struct {
	Version string
	Status  string
}

// Deployment statuses.
const (
	DeploymentStable      = "stable"
	DeploymentProblematic = "problematic"
)
