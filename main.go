package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CWPramod/ems-platform-sub002/app"
	"github.com/CWPramod/ems-platform-sub002/controllers"
	"github.com/CWPramod/ems-platform-sub002/middlewares"
)

func init() {
	app.LoadEnvVariables()
	if os.Getenv("DB_POSTGRES") != "" {
		app.InitDbPgsql()
	}
	app.InitServices()
	app.LoadCrontab()

	gin.SetMode(os.Getenv("GIN_MODE"))

	// create log file and handle logrotate also
	logfile := &lumberjack.Logger{
		Filename:   "logs/main.log",
		MaxSize:    100,  // megabytes
		MaxBackups: 30,   // Keep logs for a month
		Compress:   true, // disabled by default
	}
	log.SetOutput(logfile)

	//manual function to rotate logs daily
	go func() {
		for range time.Tick(24 * time.Hour) {
			logfile.Rotate()
		}
	}()
}

// @Title								EMS Discovery & Polling Service API
// @Version							1.0
// @Description 				network discovery and telemetry collection service in Go using Gin framework
// @Host								127.0.0.1:7002
// @securityDefinitions.basic BasicAuth
// @securityDefinitions.basic.description Basic Authentication
// @BasePath /
func main() {
	r := gin.Default()

	// aply startTimer middleware
	r.Use(middlewares.StartTimer())

	// apply custom logger middleware
	r.Use(middlewares.RequestLogger())

	// recover if panic and log the fail
	r.Use(gin.RecoveryWithWriter(log.Writer()))

	// manual routes
	controllers.DiscoveryRoutes(r)
	controllers.PollerRoutes(r)
	controllers.IngestRoutes(r)

	// load docs
	controllers.SwaggerRoutes(r)

	// handle 404 with the same json envelope as the api errors
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	// run server default port 8080 or lookup .env file
	r.Run()

	defer app.CloseDbPgsql()
}
