package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of the YAML file passed with -c or CONFIG.
//
//	server:
//	  address: ":8080"
//	  reportInterval: 5m
//	telemetry:
//	  rebuildWarningCount: 60
//	  warningThreshold: 16ms
//	  track:
//	    animations: false
type FileConfig struct {
	Server    ServerFile    `yaml:"server"`
	Telemetry TelemetryFile `yaml:"telemetry"`
}

// ServerFile mirrors the server flags. Empty values defer to the defaults.
type ServerFile struct {
	ReportInterval *time.Duration `yaml:"reportInterval"`
	Address        string         `yaml:"address"`
	Key            string         `yaml:"key"`
	DSN            string         `yaml:"dsn"`
	ReportFile     string         `yaml:"reportFile"`
	MemorySource   string         `yaml:"memorySource"`
	WarningsFile   string         `yaml:"warningsFile"`
	WarningsURL    string         `yaml:"warningsURL"`
	KafkaBrokers   string         `yaml:"kafkaBrokers"`
	KafkaTopic     string         `yaml:"kafkaTopic"`
	MinSeverity    string         `yaml:"minSeverity"`
	InsightURL     string         `yaml:"insightURL"`
	PID            int            `yaml:"pid"`
}

// TelemetryFile overrides telemetry thresholds. Zero values and nil toggles keep the defaults.
type TelemetryFile struct {
	Enabled            *bool `yaml:"enabled"`
	Production         bool  `yaml:"production"`
	EnableInUnsafeMode *bool `yaml:"enableInUnsafeMode"`
	LogWarnings        *bool `yaml:"logWarnings"`

	WarningThreshold    time.Duration `yaml:"warningThreshold"`
	FrequencyWindow     time.Duration `yaml:"frequencyWindow"`
	MemoryCheckInterval time.Duration `yaml:"memoryCheckInterval"`
	HistoryInterval     time.Duration `yaml:"historyInterval"`
	MeasureInterval     time.Duration `yaml:"measureInterval"`
	ResourceMaxAge      time.Duration `yaml:"resourceMaxAge"`

	RebuildWarningCount  int `yaml:"rebuildWarningCount"`
	SetStateWarningCount int `yaml:"setStateWarningCount"`
	MaxWidgetDepth       int `yaml:"maxWidgetDepth"`
	MaxNodeCount         int `yaml:"maxNodeCount"`
	WarningCapacity      int `yaml:"warningCapacity"`
	HistoryCapacity      int `yaml:"historyCapacity"`
	TopN                 int `yaml:"topN"`

	MemoryWarnMB       float64 `yaml:"memoryWarnMB"`
	MemoryCriticalMB   float64 `yaml:"memoryCriticalMB"`
	MaxWidgetDimension float64 `yaml:"maxWidgetDimension"`

	Track TrackFile `yaml:"track"`
}

// TrackFile toggles individual trackers.
type TrackFile struct {
	Rebuilds    *bool `yaml:"rebuilds"`
	Memory      *bool `yaml:"memory"`
	Animations  *bool `yaml:"animations"`
	WidgetSize  *bool `yaml:"widgetSize"`
	WidgetDepth *bool `yaml:"widgetDepth"`
	SetState    *bool `yaml:"setState"`
}

// LoadFile reads and strictly decodes a YAML config file.
func LoadFile(path string) (FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var fc FileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}
