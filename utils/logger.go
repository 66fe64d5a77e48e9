package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"runtime"

	"github.com/CWPramod/ems-platform-sub002/models"
)

func Fatalf(format string, args ...interface{}) {
	// Get the file and line number
	_, file, line, _ := runtime.Caller(1)
	newFormat := fmt.Sprintf("%s:%d: %s", file, line, format)
	log.Fatalf(newFormat, args...)
}

func Logline(format string, args ...any) {
	// Get the file and line number
	_, file, line, _ := runtime.Caller(1)
	newFormat := fmt.Sprintf("%s:%d: %s", file, line, format)
	log.Println(newFormat, args)
}

// show status of the pgsql pool around a worker run
func ShowStatusWorker(db models.ConnDb, taskName string, taskStatus string) string {
	// get stats from pgsql pool
	statsPgsql := db.Conn.Stat()

	// transform to json format
	poolStats := models.WorkerStatus{
		TaskName: taskName + "_" + taskStatus,
		PgsqlStatus: models.PoolStatsPgsql{
			AcquiredConns:   statsPgsql.AcquiredConns(),
			TotalConns:      statsPgsql.TotalConns(),
			IdleConns:       statsPgsql.IdleConns(),
			AcquireCount:    statsPgsql.AcquireCount(),
			AcquireDuration: statsPgsql.AcquireDuration().String(),
		},
	}
	jsonData, err := json.Marshal(poolStats)
	if err != nil {
		Logline("Error parsing the json poolStat" + err.Error())
	}

	// print to logfile
	return string(jsonData)
}
