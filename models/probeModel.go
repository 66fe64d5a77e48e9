package models

import "time"

// Device statuses reported by the probe agent.
const (
	ProbeDeviceOnline      = "online"
	ProbeDeviceUnreachable = "unreachable"
)

type ProbeDevice struct {
	Name      string `json:"name"`
	Ip        string `json:"ip"`
	Community string `json:"community"`
}

type ProbeDeviceSample struct {
	Name          string  `json:"name"`
	Ip            string  `json:"ip"`
	Status        string  `json:"status"`
	SysName       string  `json:"sysName,omitempty"`
	UptimeSeconds int64   `json:"uptimeSeconds,omitempty"`
	CpuPercent    float64 `json:"cpuPercent,omitempty"`
	MemoryPercent float64 `json:"memoryPercent,omitempty"`
	Error         string  `json:"error,omitempty"`
}

type ProbePayload struct {
	ProbeId   string              `json:"probeId"`
	Timestamp time.Time           `json:"timestamp"`
	Devices   []ProbeDeviceSample `json:"devices"`
}

type IngestResponse struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
}

// BufferedPayload is one undelivered batch waiting in the retry buffer.
type BufferedPayload struct {
	Payload     ProbePayload `json:"payload"`
	Attempts    int          `json:"attempts"`
	NextRetryAt time.Time    `json:"nextRetryAt"`
	EnqueuedAt  time.Time    `json:"enqueuedAt"`
}

type ProbeHealth struct {
	ProbeId        string    `json:"probeId"`
	ApiReachable   bool      `json:"apiReachable"`
	BufferSize     int       `json:"bufferSize"`
	BufferCapacity int       `json:"bufferCapacity"`
	LastPollTime   time.Time `json:"lastPollTime,omitempty"`
	DeviceCount    int       `json:"deviceCount"`
	AgentCpuPct    float64   `json:"agentCpuPct"`
	AgentMemPct    float64   `json:"agentMemPct"`
}
