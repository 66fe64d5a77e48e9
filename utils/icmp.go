package utils

import (
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingHost returns an error when the host answered fewer than
// minPktsRecieved of count probes. An unanswered ping is the expected case
// for most addresses during polling, so it is reported to the caller but
// never logged here as a failure.
func PingHost(host string, count int, minPktsRecieved int) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		Logline("Error creating pinger", host, err)
		return err
	}

	// Set ping parameters
	pinger.Count = count
	pinger.Timeout = 3 * time.Second

	// Run the ping
	if err = pinger.Run(); err != nil {
		return err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv < minPktsRecieved {
		return fmt.Errorf("host %s seems to be down or not responding. %d packets received out of %d sent", host, stats.PacketsRecv, stats.PacketsSent)
	}
	return nil
}
