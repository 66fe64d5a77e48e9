package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CWPramod/ems-platform-sub002/app"
	"github.com/CWPramod/ems-platform-sub002/middlewares"
	"github.com/CWPramod/ems-platform-sub002/models"
)

func PollerRoutes(r *gin.Engine) {
	poller := r.Group("/poller")
	{
		poller.GET("/status", middlewares.BasicAuth(), pollerStatus)
		poller.POST("/trigger", middlewares.BasicAuth(), triggerPoll)
	}
}

// @Summary 			Polling orchestrator status
// @Description 	device counts plus per-device reachability summary
// @Tags 					Poller
// @Produce 			json
// @Security 			BasicAuth
// @Success 			200 {object} models.PollerStatus
// @Router 				/poller/status [get]
func pollerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, app.Poller.Status())
}

// @Summary 			Trigger one reachability cycle
// @Description 	fire-and-forget; an already-running cycle makes this a no-op
// @Tags 					Poller
// @Produce 			json
// @Security 			BasicAuth
// @Success 			200 {object} models.SuccessResponse
// @Router 				/poller/trigger [post]
func triggerPoll(c *gin.Context) {
	app.Poller.TriggerPoll()

	c.JSON(
		http.StatusOK,
		models.SuccessResponse{Notice: "Poll cycle triggered"},
	)
}
