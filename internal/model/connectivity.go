package model

import (
	"sort"
	"time"
)

// Connectivity check statuses reported by the backend. Unrecognized values are
// passed through verbatim so a newer backend does not break older dashboards.
const (
	CheckStatusReachable   = "reachable"
	CheckStatusTimeout     = "timeout"
	CheckStatusUnreachable = "unreachable"
)

// ConnectivityCheck is a single network-reachability probe from an instance to
// an external target. Public-IP fields are present only on checks that also
// resolved the instance's public address.
type ConnectivityCheck struct {
	Target    string   `json:"target"`
	Timestamp int64    `json:"timestamp"` // milliseconds since epoch
	Status    string   `json:"status"`
	LatencyMs *float64 `json:"latency_ms,omitempty"`
	PublicIP  string   `json:"public_ip,omitempty"`
	IPISP     string   `json:"ip_isp,omitempty"`
	IPASN     string   `json:"ip_asn,omitempty"`
	IPCountry string   `json:"ip_country,omitempty"`
	IPRegion  string   `json:"ip_region,omitempty"`
}

// ConnectivitySummary aggregates a window of checks for one instance.
type ConnectivitySummary struct {
	LatestByTarget []ConnectivityCheck `json:"latest_by_target"`
	LatestWithIP   *ConnectivityCheck  `json:"latest_with_ip,omitempty"`
}

// LatencyPoint is one sample of a per-target latency chart series.
type LatencyPoint struct {
	Time    string  `json:"time"` // wall-clock HH:MM display label
	Latency float64 `json:"latency"`
}

// Summarize reduces an unordered window of checks to the most recent check per
// distinct target and the most recent check carrying public-IP metadata.
//
// The input is copied and stable-sorted descending by timestamp, so for equal
// timestamps the earlier input record wins. LatestByTarget preserves the
// first-insertion order of the sorted walk, i.e. descending by timestamp of
// each target's newest check. The input slice is never mutated.
func Summarize(checks []ConnectivityCheck) ConnectivitySummary {
	sorted := make([]ConnectivityCheck, len(checks))
	copy(sorted, checks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	seen := make(map[string]struct{}, len(sorted))
	latest := make([]ConnectivityCheck, 0, len(sorted))
	var latestWithIP *ConnectivityCheck

	for i := range sorted {
		check := sorted[i]
		if _, ok := seen[check.Target]; !ok {
			seen[check.Target] = struct{}{}
			latest = append(latest, check)
		}
		if latestWithIP == nil && check.PublicIP != "" {
			withIP := check
			latestWithIP = &withIP
		}
	}

	return ConnectivitySummary{
		LatestByTarget: latest,
		LatestWithIP:   latestWithIP,
	}
}

// LatencySeries extracts the chartable latency samples for one target, oldest
// first. Checks without a usable latency reading are skipped; the backend
// reports 0 as "not measured", so zero readings are treated as missing data.
func LatencySeries(checks []ConnectivityCheck, target string) []LatencyPoint {
	filtered := make([]ConnectivityCheck, 0, len(checks))
	for _, check := range checks {
		if check.Target != target {
			continue
		}
		if check.LatencyMs == nil || *check.LatencyMs == 0 {
			continue
		}
		filtered = append(filtered, check)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp < filtered[j].Timestamp
	})

	series := make([]LatencyPoint, 0, len(filtered))
	for _, check := range filtered {
		series = append(series, LatencyPoint{
			Time:    time.UnixMilli(check.Timestamp).Format("15:04"),
			Latency: *check.LatencyMs,
		})
	}

	return series
}
