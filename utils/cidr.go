package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Validation gates for a single discovery request. A request that trips any
// of them is rejected before a job is created.
const (
	MinCidrPrefix    = 16
	MaxCidrPrefix    = 30
	MaxHostsPerBlock = 1024
	MaxCidrBlocks    = 5
	MaxExplicitIps   = 200
)

// ResolveTargets turns CIDR blocks or an explicit IP list into the ordered,
// deduplicated set of candidate host addresses. It validates everything up
// front: one malformed entry fails the whole call.
func ResolveTargets(subnets []string, ips []string) ([]string, error) {
	if len(subnets) == 0 && len(ips) == 0 {
		return nil, fmt.Errorf("no subnets or ips given")
	}
	if len(subnets) > 0 && len(ips) > 0 {
		return nil, fmt.Errorf("give either subnets or ips, not both")
	}

	if len(subnets) > 0 {
		if len(subnets) > MaxCidrBlocks {
			return nil, fmt.Errorf("too many subnets: %d given, max %d per job", len(subnets), MaxCidrBlocks)
		}

		var targets []string
		seen := make(map[string]bool)
		for _, cidr := range subnets {
			hosts, err := ExpandCidr(cidr)
			if err != nil {
				return nil, err
			}
			for _, host := range hosts {
				if !seen[host] {
					seen[host] = true
					targets = append(targets, host)
				}
			}
		}
		return targets, nil
	}

	if len(ips) > MaxExplicitIps {
		return nil, fmt.Errorf("too many ips: %d given, max %d per job", len(ips), MaxExplicitIps)
	}

	var targets []string
	seen := make(map[string]bool)
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if _, err := parseIPv4(ip); err != nil {
			return nil, err
		}
		if !seen[ip] {
			seen[ip] = true
			targets = append(targets, ip)
		}
	}
	return targets, nil
}

// ExpandCidr computes the usable host range [network+1, broadcast-1] of one
// CIDR block, capped at MaxHostsPerBlock addresses. Network and broadcast
// addresses are never included.
func ExpandCidr(cidr string) ([]string, error) {
	base, prefix, err := parseCidr(cidr)
	if err != nil {
		return nil, err
	}

	hostBits := 32 - prefix
	network := base & (^uint32(0) << hostBits)
	broadcast := network | (1<<hostBits - 1)

	count := int(broadcast-network) - 1
	if count > MaxHostsPerBlock {
		count = MaxHostsPerBlock
	}

	hosts := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		hosts = append(hosts, uint32ToIp(network+uint32(i)))
	}
	return hosts, nil
}

func parseCidr(cidr string) (uint32, int, error) {
	parts := strings.Split(strings.TrimSpace(cidr), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cidr %q: expected address/prefix", cidr)
	}

	base, err := parseIPv4(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cidr %q: %v", cidr, err)
	}

	prefix, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cidr %q: prefix is not a number", cidr)
	}
	if prefix < MinCidrPrefix || prefix > MaxCidrPrefix {
		return 0, 0, fmt.Errorf("invalid cidr %q: prefix /%d outside allowed range /%d-/%d", cidr, prefix, MinCidrPrefix, MaxCidrPrefix)
	}

	return base, prefix, nil
}

// parseIPv4 validates four dot-separated octets 0-255 and packs them.
func parseIPv4(ip string) (uint32, error) {
	octets := strings.Split(ip, ".")
	if len(octets) != 4 {
		return 0, fmt.Errorf("invalid ip %q", ip)
	}

	var packed uint32
	for _, octet := range octets {
		if octet == "" || len(octet) > 3 {
			return 0, fmt.Errorf("invalid ip %q", ip)
		}
		// digits only, Atoi would let a sign through
		for _, ch := range octet {
			if ch < '0' || ch > '9' {
				return 0, fmt.Errorf("invalid ip %q", ip)
			}
		}
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return 0, fmt.Errorf("invalid ip %q", ip)
		}
		packed = packed<<8 | uint32(n)
	}
	return packed, nil
}

func uint32ToIp(n uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", n>>24&0xff, n>>16&0xff, n>>8&0xff, n&0xff)
}
