package models

// Asset statuses understood by the reconciler.
const (
	AssetActive  = "active"
	AssetPending = "pending"

	TagAutoDiscovered = "auto-discovered"
	TagPendingSnmp    = "pending-snmp"
)

type Asset struct {
	Id        string            `json:"id"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Ip        string            `json:"ip"`
	Vendor    string            `json:"vendor,omitempty"`
	Model     string            `json:"model,omitempty"`
	Location  string            `json:"location,omitempty"`
	Status    string            `json:"status"`
	Monitored bool              `json:"monitored"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AssetUpdate carries the partial fields of an update-asset call. Nil
// pointers mean "leave untouched".
type AssetUpdate struct {
	Name      *string           `json:"name,omitempty"`
	Type      *string           `json:"type,omitempty"`
	Vendor    *string           `json:"vendor,omitempty"`
	Model     *string           `json:"model,omitempty"`
	Location  *string           `json:"location,omitempty"`
	Status    *string           `json:"status,omitempty"`
	Monitored *bool             `json:"monitored,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (a *Asset) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
