package probe

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CWPramod/ems-platform-sub002/models"
)

const (
	defaultPollInterval   = 60 * time.Second
	defaultDrainInterval  = 10 * time.Second
	defaultBufferCapacity = 100
)

type Config struct {
	ProbeId        string
	IngestUrl      string
	Community      string
	PollInterval   time.Duration
	DrainInterval  time.Duration
	BufferCapacity int
	HealthPort     string
	Devices        []models.ProbeDevice
}

// LoadConfig reads the probe settings from the environment and the static
// device list from PROBE_DEVICES_FILE. The device list is fixed for the
// process lifetime: the probe never discovers anything on its own.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ProbeId:        os.Getenv("PROBE_ID"),
		IngestUrl:      os.Getenv("PROBE_INGEST_URL"),
		Community:      os.Getenv("SNMP_COMMUNITY"),
		PollInterval:   envSeconds("PROBE_POLL_INTERVAL", defaultPollInterval),
		DrainInterval:  envSeconds("PROBE_DRAIN_INTERVAL", defaultDrainInterval),
		BufferCapacity: envInt("PROBE_BUFFER_CAPACITY", defaultBufferCapacity),
		HealthPort:     os.Getenv("PROBE_HEALTH_PORT"),
	}

	if cfg.ProbeId == "" {
		return nil, fmt.Errorf("PROBE_ID is required")
	}
	if cfg.IngestUrl == "" {
		return nil, fmt.Errorf("PROBE_INGEST_URL is required")
	}
	if cfg.Community == "" {
		cfg.Community = "public"
	}
	if cfg.HealthPort == "" {
		cfg.HealthPort = "7003"
	}

	devicesFile := os.Getenv("PROBE_DEVICES_FILE")
	if devicesFile == "" {
		devicesFile = "probe.devices.json"
	}
	file, err := os.Open(devicesFile)
	if err != nil {
		return nil, fmt.Errorf("cant open device list %s: %w", devicesFile, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg.Devices); err != nil {
		return nil, fmt.Errorf("cant decode device list %s: %w", devicesFile, err)
	}
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("device list %s is empty", devicesFile)
	}

	return cfg, nil
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	if value, err := strconv.Atoi(os.Getenv(name)); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(name)); err == nil && value > 0 {
		return value
	}
	return fallback
}
