package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CWPramod/ems-platform-sub002/probe"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		utils.Logline("no .env file, using process environment")
	}

	gin.SetMode(os.Getenv("GIN_MODE"))

	// create log file and handle logrotate also
	logfile := &lumberjack.Logger{
		Filename:   "logs/probe.log",
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

func main() {
	cfg, err := probe.LoadConfig()
	if err != nil {
		utils.Fatalf("Error loading probe config: %v", err)
	}

	agent := probe.NewAgent(cfg)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		utils.Fatalf("Error creating scheduler: %v", err)
	}

	// poll loop and drain loop tick independently; singleton mode plus the
	// loops' own guards keep overlapping ticks from stacking up
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.PollInterval),
		gocron.NewTask(func() { agent.RunPollCycle(context.Background()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		utils.Fatalf("Error scheduling poll loop: %v", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.DrainInterval),
		gocron.NewTask(func() { agent.RunDrainCycle(context.Background()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		utils.Fatalf("Error scheduling drain loop: %v", err)
	}

	scheduler.Start()
	utils.Logline("probe agent started", cfg.ProbeId, len(cfg.Devices), "devices")

	r := gin.Default()
	agent.HealthRoutes(r)
	if err := r.Run(":" + cfg.HealthPort); err != nil {
		utils.Fatalf("Error running health endpoint: %v", err)
	}
}
