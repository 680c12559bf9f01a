package model

import (
	"fmt"
	"time"
)

// Staleness tiers derived from the age of the last heartbeat
const (
	TierFresh         = "fresh"
	TierSlightlyStale = "slightly-stale"
	TierStale         = "stale"
	TierUnknown       = "unknown"
)

// HeartbeatStatus is the derived freshness classification of an instance.
// It is recomputed from the latest snapshot on every request and never stored.
type HeartbeatStatus struct {
	Tier        string `json:"tier"`        // fresh | slightly-stale | stale | unknown
	Color       string `json:"color"`       // UI color keyword for badges
	Label       string `json:"label"`       // relative age, e.g. "Just now", "3m ago", "Never"
	Description string `json:"description"` // short human-readable explanation
}

// Classify maps a last-seen timestamp to a staleness tier.
//
// lastSeenMs is the heartbeat timestamp in milliseconds since epoch, or nil if
// no heartbeat was ever observed. nowMs is supplied by the caller so the
// classification is deterministic under test. Timestamps in the future (clock
// skew between backend and instance) are clamped to zero elapsed time.
func Classify(lastSeenMs *int64, nowMs int64) HeartbeatStatus {
	if lastSeenMs == nil {
		return HeartbeatStatus{
			Tier:        TierUnknown,
			Color:       "gray",
			Label:       "Never",
			Description: "No heartbeat received",
		}
	}

	elapsed := nowMs - *lastSeenMs
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := elapsed / 1000 / 60

	status := HeartbeatStatus{Label: AgeLabel(*lastSeenMs, nowMs)}
	switch {
	case minutes < 1:
		status.Tier = TierFresh
		status.Color = "green"
		status.Description = "Recently active"
	case minutes < 5:
		status.Tier = TierSlightlyStale
		status.Color = "yellow"
		status.Description = "Slightly stale"
	default:
		status.Tier = TierStale
		status.Color = "red"
		status.Description = "Unreachable"
	}

	return status
}

// AgeLabel formats the elapsed time since lastSeenMs as a relative label.
// Anything a day or older falls back to a calendar date.
func AgeLabel(lastSeenMs, nowMs int64) string {
	elapsed := nowMs - lastSeenMs
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := elapsed / 1000
	minutes := seconds / 60
	hours := minutes / 60

	switch {
	case seconds < 60:
		if seconds <= 1 {
			return "Just now"
		}
		return fmt.Sprintf("%ds ago", seconds)
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return time.UnixMilli(lastSeenMs).Format("Jan 2, 2006")
	}
}
