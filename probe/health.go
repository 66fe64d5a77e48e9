package probe

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/CWPramod/ems-platform-sub002/models"
)

// HealthRoutes exposes the local read-only health endpoint. No auth: it
// only ever binds on the probe host itself.
func (a *Agent) HealthRoutes(r *gin.Engine) {
	r.GET("/health", a.health)
}

func (a *Agent) health(c *gin.Context) {
	health := models.ProbeHealth{
		ProbeId:        a.Config.ProbeId,
		ApiReachable:   a.Forwarder.ApiReachable(),
		BufferSize:     a.Forwarder.Buffer.Size(),
		BufferCapacity: a.Forwarder.Buffer.Capacity(),
		LastPollTime:   a.lastPoll(),
		DeviceCount:    len(a.Config.Devices),
	}

	// agent self metrics, best effort
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		health.AgentCpuPct = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		health.AgentMemPct = vm.UsedPercent
	}

	c.JSON(http.StatusOK, health)
}
