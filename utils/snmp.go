package utils

import (
	"fmt"
	"time"

	g "github.com/gosnmp/gosnmp"
)

// SnmpConnect opens a v2c session against one host. When validatePing is
// true the host has to answer ICMP first, so dead addresses fail fast
// instead of burning the full SNMP timeout.
func SnmpConnect(host string, community string, timeout time.Duration, retries int, validatePing bool) (*g.GoSNMP, error) {
	if validatePing {
		if err := PingHost(host, 3, 2); err != nil {
			return nil, err
		}
	}

	params := &g.GoSNMP{
		Community:          community,
		Target:             host,
		Port:               161,
		Version:            g.Version2c,
		Timeout:            timeout,
		MaxOids:            10,
		MaxRepetitions:     10,
		Retries:            retries,
		ExponentialTimeout: true,
	}
	if err := params.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to snmp: %v", err)
	}

	return params, nil
}
