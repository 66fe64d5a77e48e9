package models

import "time"

// Job lifecycle states. Terminal states never transition again.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Interface oper/admin status values as reported by IF-MIB.
const (
	IfStatusUp      = "up"
	IfStatusDown    = "down"
	IfStatusTesting = "testing"
	IfStatusUnknown = "unknown"
)

type DiscoveryRequest struct {
	Subnets   []string `json:"subnets,omitempty"`
	Ips       []string `json:"ips,omitempty"`
	Community string   `json:"community,omitempty"`
}

type DiscoveredInterface struct {
	Name        string `json:"name"`
	Index       int    `json:"index"`
	MibType     int    `json:"mibType"`
	SpeedMbps   int64  `json:"speedMbps"`
	OperStatus  string `json:"operStatus"`
	AdminStatus string `json:"adminStatus"`
}

// InterfaceWalkResult carries whatever the walk collected plus a flag
// telling whether every subtree finished inside its deadline.
type InterfaceWalkResult struct {
	Interfaces []DiscoveredInterface `json:"interfaces"`
	Complete   bool                  `json:"complete"`
}

type DiscoveredDevice struct {
	Ip          string                `json:"ip"`
	SysName     string                `json:"sysName"`
	SysDescr    string                `json:"sysDescr"`
	SysObjectID string                `json:"sysObjectID"`
	SysUpTime   int64                 `json:"sysUpTime"`
	SysLocation string                `json:"sysLocation"`
	SysContact  string                `json:"sysContact"`
	Vendor      string                `json:"vendor"`
	DeviceType  string                `json:"deviceType"`
	Model       string                `json:"model"`
	Interfaces  []DiscoveredInterface `json:"interfaces"`
	AssetId     string                `json:"assetId,omitempty"`
	Skipped     bool                  `json:"skipped,omitempty"`
	SkipReason  string                `json:"skipReason,omitempty"`
}

type DiscoveryJob struct {
	JobId          string             `json:"jobId"`
	Status         string             `json:"status"`
	Progress       int                `json:"progress"`
	TotalTargets   int                `json:"totalTargets"`
	ScannedTargets int                `json:"scannedTargets"`
	DevicesFound   int                `json:"devicesFound"`
	Devices        []DiscoveredDevice `json:"devices"`
	Targets        string             `json:"targets"`
	Community      string             `json:"community"`
	StartedAt      time.Time          `json:"startedAt"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
	Error          string             `json:"error,omitempty"`
}

type DiscoveryStarted struct {
	JobId        string `json:"jobId"`
	TotalTargets int    `json:"totalTargets"`
}
