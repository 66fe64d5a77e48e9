package models

import "time"

// Event severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

type Event struct {
	Id       string    `json:"id"`
	AssetId  string    `json:"assetId,omitempty"`
	Severity string    `json:"severity"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

type MetricSample struct {
	AssetId string    `json:"assetId,omitempty"`
	ProbeId string    `json:"probeId,omitempty"`
	Name    string    `json:"name"`
	Value   float64   `json:"value"`
	At      time.Time `json:"at"`
}

// DeviceMetrics is one metric-cycle reading from a single device.
type DeviceMetrics struct {
	CpuPercent     float64 `json:"cpuPercent"`
	MemoryPercent  float64 `json:"memoryPercent"`
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	InterfaceCount int     `json:"interfaceCount"`
}

// ReachabilityState lives in memory only; a restart loses poll history.
type ReachabilityState struct {
	AssetId             string     `json:"assetId"`
	Ip                  string     `json:"ip"`
	Name                string     `json:"name"`
	LastPollTime        time.Time  `json:"lastPollTime"`
	LastSuccessTime     *time.Time `json:"lastSuccessTime,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	IsReachable         bool       `json:"isReachable"`
	LastError           string     `json:"lastError,omitempty"`
}

type PollerStatus struct {
	IsPolling          bool                `json:"isPolling"`
	TotalDevices       int                 `json:"totalDevices"`
	ReachableDevices   int                 `json:"reachableDevices"`
	UnreachableDevices int                 `json:"unreachableDevices"`
	PerDeviceSummary   []ReachabilityState `json:"perDeviceSummary"`
}
