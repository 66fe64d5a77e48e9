package app

import (
	"os"
	"strings"

	"github.com/CWPramod/ems-platform-sub002/repo"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// Shared singletons wired at startup, same role the db pools play for the
// repo layer.
var (
	Jobs      *repo.JobStore
	Prober    *repo.SnmpProber
	Inventory repo.AssetInventory
	Events    repo.EventSink
	Metrics   repo.MetricSink
	Poller    *repo.Poller
	Discovery *repo.DiscoveryEngine
)

func InitServices() {
	community := os.Getenv("SNMP_COMMUNITY")

	Jobs = repo.NewJobStore()
	Prober = repo.NewSnmpProber()

	if PoolPgsql != nil {
		Inventory = repo.NewPgInventory(PoolPgsql)
		store := repo.NewPgEventStore(PoolPgsql)
		Events = store
		Metrics = store
	} else {
		// no DB_POSTGRES configured: run against the in-memory inventory
		// and log-only sinks, nothing survives a restart
		utils.Logline("running without database, inventory and sinks are in-memory")
		Inventory = repo.NewMemoryInventory()
		sink := repo.LogSink{}
		Events = sink
		Metrics = sink
	}

	Poller = repo.NewPoller(Inventory, Prober, Events, Metrics, community)

	reconciler := repo.NewReconciler(Inventory, Poller)
	Discovery = repo.NewDiscoveryEngine(Jobs, Prober, reconciler, community)
	if subnets := strings.TrimSpace(os.Getenv("DISCOVERY_SUBNETS")); subnets != "" {
		Discovery.DefaultSubnets = strings.Split(subnets, ",")
	}
}
