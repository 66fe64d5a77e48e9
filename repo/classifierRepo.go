package repo

import (
	"regexp"
	"strings"
)

// Classification is the vendor/type/model triple derived from a device's
// sysObjectID and sysDescr. Identical inputs always classify identically.
type Classification struct {
	Vendor     string
	DeviceType string
	Model      string
}

type vendorRule struct {
	oidPrefix   string
	vendor      string
	defaultType string
}

// Enterprise OID prefixes checked in order; first match wins. The default
// type is what the vendor most commonly ships when the description gives
// no better hint.
var vendorRules = []vendorRule{
	{".1.3.6.1.4.1.9.", "Cisco", "router"},
	{".1.3.6.1.4.1.2636.", "Juniper", "router"},
	{".1.3.6.1.4.1.2011.", "Huawei", "router"},
	{".1.3.6.1.4.1.25461.", "Palo Alto", "firewall"},
	{".1.3.6.1.4.1.12356.", "Fortinet", "firewall"},
	{".1.3.6.1.4.1.14988.", "MikroTik", "router"},
	{".1.3.6.1.4.1.11.", "HPE", "switch"},
	{".1.3.6.1.4.1.1916.", "Extreme", "switch"},
	{".1.3.6.1.4.1.6486.", "Alcatel-Lucent", "switch"},
	{".1.3.6.1.4.1.4526.", "Netgear", "switch"},
	{".1.3.6.1.4.1.3902.", "ZTE", "network device"},
	{".1.3.6.1.4.1.890.", "Zyxel", "network device"},
	{".1.3.6.1.4.1.41112.", "Ubiquiti", "access point"},
	{".1.3.6.1.4.1.14823.", "Aruba", "access point"},
	{".1.3.6.1.4.1.8072.", "Net-SNMP", "server"},
	{".1.3.6.1.4.1.2021.", "Net-SNMP", "server"},
}

type keywordRule struct {
	keyword    string
	deviceType string
}

var keywordRules = []keywordRule{
	{"firewall", "firewall"},
	{"switch", "switch"},
	{"router", "router"},
	{"access point", "access point"},
	{"wireless", "access point"},
}

// modelPattern pulls an alphanumeric model token like ASR-9001, EX4300 or
// SG350-28 out of a description.
var modelPattern = regexp.MustCompile(`\b([A-Za-z]{1,8}-?\d{2,5}[A-Za-z0-9-]*)\b`)

// ClassifyDevice maps raw SNMP identifiers to vendor/type/model. Pure
// function: its only inputs are the two arguments and the fixed rule set.
func ClassifyDevice(sysObjectID string, sysDescr string) Classification {
	c := Classification{
		Vendor:     "Unknown",
		DeviceType: "network device",
	}

	oid := normalizeOid(sysObjectID)
	for _, rule := range vendorRules {
		if strings.HasPrefix(oid, rule.oidPrefix) {
			c.Vendor = rule.vendor
			c.DeviceType = rule.defaultType
			break
		}
	}

	// keyword fallback only refines the type when no prefix gave one
	if c.Vendor == "Unknown" {
		descrLower := strings.ToLower(sysDescr)
		for _, rule := range keywordRules {
			if strings.Contains(descrLower, rule.keyword) {
				c.DeviceType = rule.deviceType
				break
			}
		}
	}

	c.Model = extractModel(sysDescr)

	return c
}

func normalizeOid(oid string) string {
	oid = strings.TrimSpace(oid)
	if oid == "" {
		return ""
	}
	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}
	// trailing dot so a prefix rule cant half-match an arc number
	if !strings.HasSuffix(oid, ".") {
		oid = oid + "."
	}
	return oid
}

func extractModel(sysDescr string) string {
	if match := modelPattern.FindString(sysDescr); match != "" {
		return match
	}

	// no model token, keep the first three words of the description
	words := strings.Fields(sysDescr)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
