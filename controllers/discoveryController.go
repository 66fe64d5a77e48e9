package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CWPramod/ems-platform-sub002/app"
	"github.com/CWPramod/ems-platform-sub002/middlewares"
	"github.com/CWPramod/ems-platform-sub002/models"
)

func DiscoveryRoutes(r *gin.Engine) {
	discovery := r.Group("/discovery")
	{
		discovery.POST("/start", middlewares.BasicAuth(), startDiscovery)
		discovery.GET("/status", middlewares.BasicAuth(), latestDiscoveryStatus)
		discovery.GET("/status/:jobId", middlewares.BasicAuth(), discoveryStatus)
		discovery.POST("/trigger", middlewares.BasicAuth(), triggerDiscovery)
	}
}

// @Summary 			Start a discovery job
// @Description 	validate subnets/ips synchronously and run the scan in background
// @Tags 					Discovery
// @Accept 				json
// @Produce 			json
// @Security 			BasicAuth
// @Param 				request body models.DiscoveryRequest true "subnets or ips plus optional community"
// @Success 			200 {object} models.DiscoveryStarted
// @Failure 			400 {object} models.ErrorResponse
// @Router 				/discovery/start [post]
func startDiscovery(c *gin.Context) {
	var req models.DiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: err.Error()},
		)
		return
	}

	started, err := app.Discovery.StartDiscovery(req)
	if err != nil {
		c.AbortWithStatusJSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: err.Error()},
		)
		return
	}

	c.JSON(http.StatusOK, started)
}

// @Summary 			Latest discovery job status
// @Description 	snapshot of the most recently created job
// @Tags 					Discovery
// @Produce 			json
// @Security 			BasicAuth
// @Success 			200 {object} models.DiscoveryJob
// @Failure 			404 {object} models.ErrorResponse
// @Router 				/discovery/status [get]
func latestDiscoveryStatus(c *gin.Context) {
	job := app.Jobs.Latest()
	if job == nil {
		c.AbortWithStatusJSON(
			http.StatusNotFound,
			models.ErrorResponse{Error: "no discovery started"},
		)
		return
	}

	c.JSON(http.StatusOK, job)
}

// @Summary 			Discovery job status by id
// @Tags 					Discovery
// @Produce 			json
// @Security 			BasicAuth
// @Param 				jobId path string true "job id"
// @Success 			200 {object} models.DiscoveryJob
// @Failure 			404 {object} models.ErrorResponse
// @Router 				/discovery/status/{jobId} [get]
func discoveryStatus(c *gin.Context) {
	job := app.Jobs.Get(c.Param("jobId"))
	if job == nil {
		c.AbortWithStatusJSON(
			http.StatusNotFound,
			models.ErrorResponse{Error: "job not found"},
		)
		return
	}

	c.JSON(http.StatusOK, job)
}

// @Summary 			Trigger discovery over the configured default subnets
// @Description 	fire-and-forget
// @Tags 					Discovery
// @Produce 			json
// @Security 			BasicAuth
// @Success 			200 {object} models.SuccessResponse
// @Router 				/discovery/trigger [post]
func triggerDiscovery(c *gin.Context) {
	go app.Discovery.TriggerDefault()

	c.JSON(
		http.StatusOK,
		models.SuccessResponse{Notice: "Discovery triggered"},
	)
}
