package model

// Instance represents one monitored Home Assistant deployment tracked by the
// backend. LastSeen mirrors the newest heartbeat timestamp and is nil for
// instances that enrolled but never reported.
type Instance struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"` // Home Assistant core version
	LastSeen  *int64 `json:"last_seen,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// SystemInfo is the host-level snapshot an instance reports alongside its
// heartbeats.
type SystemInfo struct {
	InstanceID    string  `json:"instance_id"`
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Arch          string  `json:"arch"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsedMB  int64   `json:"memory_used_mb"`
	MemoryTotalMB int64   `json:"memory_total_mb"`
	DiskUsedGB    float64 `json:"disk_used_gb"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// AvailableUpdate describes one pending component update on an instance.
type AvailableUpdate struct {
	InstanceID       string `json:"instance_id"`
	Component        string `json:"component"`
	InstalledVersion string `json:"installed_version"`
	LatestVersion    string `json:"latest_version"`
	UpdateType       string `json:"update_type"` // core | os | supervisor | addon
}

// EnrollmentCode is a one-time code a new instance uses to join the fleet.
type EnrollmentCode struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	Used      bool   `json:"used"`
}
