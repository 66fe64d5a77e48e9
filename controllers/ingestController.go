package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CWPramod/ems-platform-sub002/app"
	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

func IngestRoutes(r *gin.Engine) {
	r.POST("/probe/ingest", ingestProbePayload)
}

// @Summary 			Ingest one probe telemetry batch
// @Description 	accepts {probeId, timestamp, devices[]} pushed by edge probes
// @Tags 					Probe
// @Accept 				json
// @Produce 			json
// @Success 			200 {object} models.IngestResponse
// @Failure 			400 {object} models.ErrorResponse
// @Router 				/probe/ingest [post]
func ingestProbePayload(c *gin.Context) {
	var payload models.ProbePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: err.Error()},
		)
		return
	}

	if payload.ProbeId == "" {
		c.AbortWithStatusJSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "probeId is required"},
		)
		return
	}

	response := models.IngestResponse{Errors: []string{}}

	at := payload.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	var samples []models.MetricSample
	for _, device := range payload.Devices {
		if device.Ip == "" {
			response.Errors = append(response.Errors, fmt.Sprintf("device %q has no ip", device.Name))
			continue
		}

		online := 0.0
		if device.Status == models.ProbeDeviceOnline {
			online = 1.0
		}
		samples = append(samples,
			models.MetricSample{ProbeId: payload.ProbeId, Name: "device_online:" + device.Ip, Value: online, At: at},
			models.MetricSample{ProbeId: payload.ProbeId, Name: "uptime_seconds:" + device.Ip, Value: float64(device.UptimeSeconds), At: at},
		)
		// cpu/mem only carry a real reading while the device answers
		if device.Status == models.ProbeDeviceOnline {
			samples = append(samples,
				models.MetricSample{ProbeId: payload.ProbeId, Name: "cpu_percent:" + device.Ip, Value: device.CpuPercent, At: at},
				models.MetricSample{ProbeId: payload.ProbeId, Name: "memory_percent:" + device.Ip, Value: device.MemoryPercent, At: at},
			)
		}
		response.Processed++
	}

	if len(samples) > 0 {
		if err := app.Metrics.Record(c.Request.Context(), samples); err != nil {
			utils.Logline("error recording probe samples", payload.ProbeId, err)
			c.AbortWithStatusJSON(
				http.StatusInternalServerError,
				models.ErrorResponse{Error: "failed to record samples"},
			)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}
