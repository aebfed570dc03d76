package models

import "time"

// GeoPoint is serialised as an Elasticsearch geo_point object.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MetricRecord is a point-in-time resource snapshot for one service on one host.
type MetricRecord struct {
	Timestamp            time.Time `json:"@timestamp"`
	ServiceName          string    `json:"service.name"`
	ServiceEnvironment   string    `json:"service.environment"`
	HostName             string    `json:"host.name"`
	HostIP               string    `json:"host.ip"`
	CPUPercent           float64   `json:"system.cpu.usage_percent"`
	MemoryPercent        float64   `json:"system.memory.usage_percent"`
	MemoryUsedBytes      int64     `json:"system.memory.used_bytes"`
	MemoryTotalBytes     int64     `json:"system.memory.total_bytes"`
	DiskReadBytesPerSec  float64   `json:"system.disk.read_bytes_per_sec"`
	DiskWriteBytesPerSec float64   `json:"system.disk.write_bytes_per_sec"`
	DiskPercent          float64   `json:"system.disk.usage_percent"`
	Load1m               float64   `json:"system.load.1m"`
	Load5m               float64   `json:"system.load.5m"`
	Load15m              float64   `json:"system.load.15m"`
	NetworkBytesIn       int64     `json:"network.bytes_in"`
	NetworkBytesOut      int64     `json:"network.bytes_out"`
	ConnectionsActive    int       `json:"network.connections_active"`
	ContainerID          string    `json:"container.id"`
	ContainerCPUPercent  float64   `json:"container.cpu.usage_percent"`
	ContainerMemPercent  float64   `json:"container.memory.usage_percent"`
	KubernetesPodName    string    `json:"kubernetes.pod.name"`
	KubernetesNodeName   string    `json:"kubernetes.node.name"`
	GeoLocation          GeoPoint  `json:"geo.location"`
	GeoRegion            string    `json:"geo.region"`
}

// LogRecord is a single application log event. Optional fields are omitted
// from the serialised document when unset.
type LogRecord struct {
	Timestamp           time.Time  `json:"@timestamp"`
	ServiceName         string     `json:"service.name"`
	ServiceEnvironment  string     `json:"service.environment"`
	Level               LogLevel   `json:"log.level"`
	Message             string     `json:"message"`
	HostName            string     `json:"host.name"`
	HostIP              string     `json:"host.ip"`
	ErrorCode           string     `json:"error.code,omitempty"`
	ErrorMessage        string     `json:"error.message,omitempty"`
	HTTPStatusCode      int        `json:"http.response.status_code,omitempty"`
	HTTPMethod          string     `json:"http.request.method,omitempty"`
	URLPath             string     `json:"url.path,omitempty"`
	ResponseTimeMs      float64    `json:"response_time_ms"`
	TraceID             string     `json:"trace.id,omitempty"`
	DeploymentVersion   string     `json:"deployment.version,omitempty"`
	DeploymentTimestamp *time.Time `json:"deployment.timestamp,omitempty"`
	GeoLocation         GeoPoint   `json:"geo.location"`
	GeoRegion           string     `json:"geo.region"`
	ContainerID         string     `json:"container.id,omitempty"`
	KubernetesPodName   string     `json:"kubernetes.pod.name,omitempty"`
}

// BusinessRecord is a commercial snapshot for one service.
type BusinessRecord struct {
	Timestamp          time.Time `json:"@timestamp"`
	ServiceName        string    `json:"service.name"`
	ServiceTier        string    `json:"service.tier"`
	TransactionCount   int       `json:"transactions.count"`
	TransactionSuccess int       `json:"transactions.success_count"`
	TransactionFailure int       `json:"transactions.failure_count"`
	SuccessRate        float64   `json:"transactions.success_rate"`
	RevenueUSD         float64   `json:"revenue.amount_usd"`
	BaselineHourlyUSD  float64   `json:"revenue.baseline_hourly_usd"`
	ActiveUsers        int       `json:"active_users"`
	ActiveSessions     int       `json:"active_sessions"`
	ErrorRatePercent   float64   `json:"error_rate_percent"`
	AvgResponseTimeMs  float64   `json:"avg_response_time_ms"`
	P99ResponseTimeMs  float64   `json:"p99_response_time_ms"`
	SLACompliance      bool      `json:"sla_compliance"`
}
