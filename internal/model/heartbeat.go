package model

// Heartbeat is a single periodic liveness report from an instance.
type Heartbeat struct {
	InstanceID string `json:"instance_id"`
	Timestamp  int64  `json:"timestamp"` // milliseconds since epoch
}

// LatestHeartbeat returns the heartbeat with the highest timestamp, or nil for
// an empty window.
func LatestHeartbeat(beats []Heartbeat) *Heartbeat {
	var latest *Heartbeat
	for i := range beats {
		if latest == nil || beats[i].Timestamp > latest.Timestamp {
			latest = &beats[i]
		}
	}
	return latest
}
