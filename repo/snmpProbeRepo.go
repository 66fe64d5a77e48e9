package repo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	g "github.com/gosnmp/gosnmp"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// System and IF-MIB OIDs used by the prober.
const (
	OidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	OidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	OidSysUpTime   = ".1.3.6.1.2.1.1.3.0"
	OidSysContact  = ".1.3.6.1.2.1.1.4.0"
	OidSysName     = ".1.3.6.1.2.1.1.5.0"
	OidSysLocation = ".1.3.6.1.2.1.1.6.0"

	OidIfNumber      = ".1.3.6.1.2.1.2.1.0"
	OidIfDescr       = ".1.3.6.1.2.1.2.2.1.2"
	OidIfType        = ".1.3.6.1.2.1.2.2.1.3"
	OidIfSpeed       = ".1.3.6.1.2.1.2.2.1.5"
	OidIfAdminStatus = ".1.3.6.1.2.1.2.2.1.7"
	OidIfOperStatus  = ".1.3.6.1.2.1.2.2.1.8"
	OidIfName        = ".1.3.6.1.2.1.31.1.1.1.1"

	OidHrProcessorLoad = ".1.3.6.1.2.1.25.3.3.1.2"
	OidMemTotalReal    = ".1.3.6.1.4.1.2021.4.5.0"
	OidMemAvailReal    = ".1.3.6.1.4.1.2021.4.6.0"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultWalkTimeout  = 8 * time.Second
)

// DeviceProber is what the discovery engine and the poller need from SNMP.
type DeviceProber interface {
	ProbeDevice(ctx context.Context, ip string, community string) (*models.DiscoveredDevice, error)
	WalkInterfaces(ctx context.Context, ip string, community string) models.InterfaceWalkResult
	CollectMetrics(ctx context.Context, ip string, community string) (*models.DeviceMetrics, error)
}

// SnmpProber talks v2c to one host per call. Zero value works with the
// default timeouts.
type SnmpProber struct {
	Timeout     time.Duration
	WalkTimeout time.Duration
}

func NewSnmpProber() *SnmpProber {
	return &SnmpProber{Timeout: defaultProbeTimeout, WalkTimeout: defaultWalkTimeout}
}

func (p *SnmpProber) probeTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultProbeTimeout
}

func (p *SnmpProber) walkTimeout() time.Duration {
	if p.WalkTimeout > 0 {
		return p.WalkTimeout
	}
	return defaultWalkTimeout
}

// ProbeDevice issues the system-group GET against one address. A host that
// does not answer, or answers with neither description nor name, is absent:
// (nil, nil), never an error. Most addresses of a subnet land here.
func (p *SnmpProber) ProbeDevice(ctx context.Context, ip string, community string) (*models.DiscoveredDevice, error) {
	connSnmp, err := utils.SnmpConnect(ip, community, p.probeTimeout(), 1, false)
	if err != nil {
		return nil, nil
	}
	defer connSnmp.Conn.Close()
	connSnmp.Context = ctx

	oids := []string{OidSysDescr, OidSysObjectID, OidSysUpTime, OidSysName, OidSysLocation}
	resultSnmp, err := connSnmp.Get(oids)
	if err != nil {
		// timeout or no route: host not present
		return nil, nil
	}

	device := &models.DiscoveredDevice{Ip: ip}
	for _, value := range resultSnmp.Variables {
		switch value.Name {
		case OidSysDescr:
			device.SysDescr = pduString(value)
		case OidSysObjectID:
			device.SysObjectID = pduString(value)
		case OidSysUpTime:
			device.SysUpTime = pduInt(value) / 100
		case OidSysName:
			device.SysName = pduString(value)
		case OidSysLocation:
			device.SysLocation = pduString(value)
		}
	}

	if device.SysDescr == "" && device.SysName == "" {
		return nil, nil
	}

	// best effort, some agents refuse sysContact
	if contact, err := connSnmp.Get([]string{OidSysContact}); err == nil && len(contact.Variables) > 0 {
		device.SysContact = pduString(contact.Variables[0])
	}

	classification := ClassifyDevice(device.SysObjectID, device.SysDescr)
	device.Vendor = classification.Vendor
	device.DeviceType = classification.DeviceType
	device.Model = classification.Model

	return device, nil
}

// WalkInterfaces runs six parallel IF-MIB subtree walks, each on its own
// session because a gosnmp session is not safe for concurrent use. A walk
// that runs out of time contributes whatever it collected; Complete is true
// only when every subtree finished.
func (p *SnmpProber) WalkInterfaces(ctx context.Context, ip string, community string) models.InterfaceWalkResult {
	columns := []string{OidIfDescr, OidIfType, OidIfSpeed, OidIfOperStatus, OidIfAdminStatus, OidIfName}

	results := make([]map[int]g.SnmpPDU, len(columns))
	completes := make([]bool, len(columns))

	var wg sync.WaitGroup
	for i, oid := range columns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], completes[i] = p.walkColumn(ctx, ip, community, oid)
		}()
	}
	wg.Wait()

	walk := models.InterfaceWalkResult{Complete: true}
	for _, complete := range completes {
		if !complete {
			walk.Complete = false
		}
	}

	descr, ifType, speed, oper, admin, name := results[0], results[1], results[2], results[3], results[4], results[5]

	// join by interface index
	indexes := make(map[int]bool)
	for _, column := range results {
		for index := range column {
			indexes[index] = true
		}
	}

	for index := range indexes {
		iface := models.DiscoveredInterface{
			Index:       index,
			OperStatus:  models.IfStatusUnknown,
			AdminStatus: models.IfStatusUnknown,
		}
		if pdu, ok := name[index]; ok {
			iface.Name = pduString(pdu)
		}
		if iface.Name == "" {
			if pdu, ok := descr[index]; ok {
				iface.Name = pduString(pdu)
			}
		}
		if pdu, ok := ifType[index]; ok {
			iface.MibType = int(pduInt(pdu))
		}
		if pdu, ok := speed[index]; ok {
			iface.SpeedMbps = utils.BitsToMbps(uint64(pduInt(pdu)))
		}
		if pdu, ok := oper[index]; ok {
			iface.OperStatus = IfStatusString(int(pduInt(pdu)))
		}
		if pdu, ok := admin[index]; ok {
			iface.AdminStatus = IfStatusString(int(pduInt(pdu)))
		}
		walk.Interfaces = append(walk.Interfaces, iface)
	}

	sort.Slice(walk.Interfaces, func(i, j int) bool {
		return walk.Interfaces[i].Index < walk.Interfaces[j].Index
	})

	return walk
}

// walkColumn collects one subtree until it ends or the walk budget runs
// out. Partial data survives a timeout.
func (p *SnmpProber) walkColumn(ctx context.Context, ip string, community string, oid string) (map[int]g.SnmpPDU, bool) {
	collected := make(map[int]g.SnmpPDU)

	walkCtx, cancel := context.WithTimeout(ctx, p.walkTimeout())
	defer cancel()

	connSnmp, err := utils.SnmpConnect(ip, community, 2*time.Second, 1, false)
	if err != nil {
		return collected, false
	}
	defer connSnmp.Conn.Close()
	connSnmp.Context = walkCtx

	err = connSnmp.Walk(oid, func(pdu g.SnmpPDU) error {
		select {
		case <-walkCtx.Done():
			return walkCtx.Err()
		default:
		}
		index, err := indexFromOid(pdu.Name, oid)
		if err != nil {
			return nil
		}
		collected[index] = pdu
		return nil
	})

	return collected, err == nil
}

// CollectMetrics gathers the metric-cycle sample from one device: CPU load
// averaged over hrProcessorLoad rows, memory from the UCD real-memory pair,
// uptime and interface count from the standard scalars.
func (p *SnmpProber) CollectMetrics(ctx context.Context, ip string, community string) (*models.DeviceMetrics, error) {
	connSnmp, err := utils.SnmpConnect(ip, community, p.probeTimeout(), 1, false)
	if err != nil {
		return nil, err
	}
	defer connSnmp.Conn.Close()
	connSnmp.Context = ctx

	metrics := &models.DeviceMetrics{}

	resultSnmp, err := connSnmp.Get([]string{OidSysUpTime, OidIfNumber})
	if err != nil {
		return nil, fmt.Errorf("metric get failed on %s: %w", ip, err)
	}
	for _, value := range resultSnmp.Variables {
		switch value.Name {
		case OidSysUpTime:
			metrics.UptimeSeconds = pduInt(value) / 100
		case OidIfNumber:
			metrics.InterfaceCount = int(pduInt(value))
		}
	}

	// cpu: average across processor rows, agents without HOST-RESOURCES
	// report nothing and the value stays 0
	if rows, err := connSnmp.WalkAll(OidHrProcessorLoad); err == nil && len(rows) > 0 {
		var total int64
		for _, row := range rows {
			total += pduInt(row)
		}
		metrics.CpuPercent = float64(total) / float64(len(rows))
	}

	// memory: UCD real memory, best effort as well
	if mem, err := connSnmp.Get([]string{OidMemTotalReal, OidMemAvailReal}); err == nil {
		var total, avail int64
		for _, value := range mem.Variables {
			switch value.Name {
			case OidMemTotalReal:
				total = pduInt(value)
			case OidMemAvailReal:
				avail = pduInt(value)
			}
		}
		if total > 0 {
			metrics.MemoryPercent = float64(total-avail) / float64(total) * 100
		}
	}

	return metrics, nil
}

// IfStatusString maps IF-MIB status integers; anything unrecognized is
// "unknown", never an error.
func IfStatusString(status int) string {
	switch status {
	case 1:
		return models.IfStatusUp
	case 2:
		return models.IfStatusDown
	case 3:
		return models.IfStatusTesting
	default:
		return models.IfStatusUnknown
	}
}

func indexFromOid(name string, root string) (int, error) {
	suffix := strings.TrimPrefix(strings.TrimPrefix(name, root), ".")
	return strconv.Atoi(suffix)
}

func pduString(pdu g.SnmpPDU) string {
	switch value := pdu.Value.(type) {
	case []byte:
		return strings.TrimSpace(string(value))
	case string:
		return strings.TrimSpace(value)
	default:
		if pdu.Value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%v", pdu.Value))
	}
}

func pduInt(pdu g.SnmpPDU) int64 {
	return g.ToBigInt(pdu.Value).Int64()
}
