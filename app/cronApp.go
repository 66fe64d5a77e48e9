package app

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// TaskConfig structure to hold the cron schedule and task name
type taskConfig struct {
	Schedule string `json:"schedule"`
	Task     string `json:"task"`
	Enabled  bool   `json:"enabled"`
}

// Load task configurations from file
func loadTasksConfig() ([]taskConfig, error) {
	// open file
	file, err := os.Open(".crontab")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// decode json data to struct
	var tasksConfig []taskConfig
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&tasksConfig)
	if err != nil {
		return nil, err
	}

	return tasksConfig, nil
}

func LoadCrontab() {

	// Load task configurations
	tasksConfig, err := loadTasksConfig()
	if err != nil {
		utils.Logline("Failed to load task configurations: %v", err)
		return
	}

	// Create a new scheduler
	scheduler, _ := gocron.NewScheduler()

	// Schedule tasks based on the configurations. Singleton mode backs up
	// the cycles' own in-progress guards: an overlapping tick is skipped.
	for _, taskConfig := range tasksConfig {
		if !taskConfig.Enabled {
			continue
		}
		var err error
		switch taskConfig.Task {
		case "poll_reachability":
			_, err = scheduler.NewJob(
				gocron.CronJob(taskConfig.Schedule, false),
				gocron.NewTask(pollReachability),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
		case "poll_metrics":
			_, err = scheduler.NewJob(
				gocron.CronJob(taskConfig.Schedule, false),
				gocron.NewTask(pollMetrics),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
		case "run_discovery":
			_, err = scheduler.NewJob(
				gocron.CronJob(taskConfig.Schedule, false),
				gocron.NewTask(runDiscovery),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
		default:
			utils.Logline("Unknown task", taskConfig.Task)
		}

		if err != nil {
			utils.Logline("Failed to schedule task", err)
		}
	}

	// Start the scheduler
	scheduler.Start()
}

// pool stats around a worker run, skipped in no-database mode
func logPoolStatus(ctx context.Context, task string, status string) {
	if PoolPgsql == nil {
		return
	}
	db := models.ConnDb{Conn: PoolPgsql, Ctx: ctx}
	utils.Logline(utils.ShowStatusWorker(db, task, status))
}

// Define task functions
func pollReachability() {
	defer func() {
		if r := recover(); r != nil {
			utils.Logline("Recovered from panic <<poll_reachability>>: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	logPoolStatus(ctx, "pollReachability", "begin")
	Poller.RunReachabilityCycle(ctx)
	logPoolStatus(ctx, "pollReachability", "ending")
}

func pollMetrics() {
	defer func() {
		if r := recover(); r != nil {
			utils.Logline("Recovered from panic <<poll_metrics>>: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logPoolStatus(ctx, "pollMetrics", "begin")
	Poller.RunMetricCycle(ctx)
	logPoolStatus(ctx, "pollMetrics", "ending")
}

func runDiscovery() {
	defer func() {
		if r := recover(); r != nil {
			utils.Logline("Recovered from panic <<run_discovery>>: %v", r)
		}
	}()

	Discovery.TriggerDefault()
}
