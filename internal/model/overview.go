package model

// InstanceOverview combines an instance with its derived status for list views.
type InstanceOverview struct {
	Instance       Instance        `json:"instance"`
	Status         HeartbeatStatus `json:"status"`
	PendingUpdates int             `json:"pending_updates"`
}

// InstanceDetail is the full per-instance view: overview plus system info and
// the connectivity summary for the trailing window.
type InstanceDetail struct {
	InstanceOverview
	SystemInfo   *SystemInfo          `json:"system_info,omitempty"`
	Updates      []AvailableUpdate    `json:"updates"`
	Connectivity *ConnectivitySummary `json:"connectivity,omitempty"`
}

// FleetOverview is the dashboard landing payload: every instance with derived
// status plus per-tier counts.
type FleetOverview struct {
	GeneratedAt int64              `json:"generated_at"` // milliseconds since epoch
	Counts      map[string]int     `json:"counts"`       // tier -> instance count
	Instances   []InstanceOverview `json:"instances"`
}
