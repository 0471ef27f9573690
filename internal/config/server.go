package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	defaultListenAndServeAddr = ":8080"
	defaultReportFile         = "perfwatch-report.json"
	defaultDSN                = ""
	defaultReportInterval     = 300
	defaultServerSource       = "none"
	defaultKafkaTopic         = "perfwatch-warnings"
	defaultMinSeverity        = "info"
)

type ServerConfig struct {
	Address        string
	Key            string
	DSN            string
	ReportFile     string
	ReportInterval time.Duration

	// MemorySource and PID select what the server's own memory sampler measures.
	MemorySource string
	PID          int

	WarningsFile string
	WebhookURL   string
	KafkaBrokers string
	KafkaTopic   string
	MinSeverity  string

	InsightURL string

	// ConfigFile is the optional YAML file the values above fall back to.
	ConfigFile string
	Telemetry  TelemetryFile
}

// ENV > CLI > YAML > defaults
func LoadServerConfig(args []string, out io.Writer) (ServerConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		addrOpt, keyOpt, dsnOpt, fileOpt   string
		sourceOpt, cfgOpt, insightOpt      string
		warnFileOpt, webhookOpt, minSevOpt string
		brokersOpt, topicOpt               string
		ivalOpt, pidOpt                    int
		enabledOpt, logWarnOpt, unsafeOpt  bool
	)

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAndServeAddr))
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.StringVar(&dsnOpt, "d", "", "DATABASE_DSN for the Postgres report store, default: in-memory store")
	fs.StringVar(&fileOpt, "f", "", fmt.Sprintf("REPORT_FILE_PATH for the latest JSON report, default: %s", defaultReportFile))
	fs.IntVar(&ivalOpt, "i", -1, fmt.Sprintf("REPORT_INTERVAL seconds (0 - disabled), default: %d", defaultReportInterval))
	fs.StringVar(&sourceOpt, "s", "", fmt.Sprintf("local memory source (none, process, runtime, system), default: %s", defaultServerSource))
	fs.IntVar(&pidOpt, "pid", 0, "process sampled by the process source, default: the server itself")
	fs.StringVar(&warnFileOpt, "warnings-file", "", "append warnings as NDJSON to this file")
	fs.StringVar(&webhookOpt, "warnings-url", "", "POST warnings to this URL")
	fs.StringVar(&brokersOpt, "kafka-brokers", "", "comma separated Kafka brokers for the warning stream")
	fs.StringVar(&topicOpt, "kafka-topic", "", fmt.Sprintf("Kafka topic for warnings, default: %s", defaultKafkaTopic))
	fs.StringVar(&minSevOpt, "min-severity", "", fmt.Sprintf("lowest severity forwarded to sinks, default: %s", defaultMinSeverity))
	fs.StringVar(&insightOpt, "insight-url", "", "base URL of the insight service")
	fs.StringVar(&cfgOpt, "c", "", "YAML config file")
	fs.BoolVar(&enabledOpt, "telemetry", true, "enable telemetry tracking (TELEMETRY_ENABLED)")
	fs.BoolVar(&logWarnOpt, "log-warnings", false, "log every warning (LOG_WARNINGS)")
	fs.BoolVar(&unsafeOpt, "unsafe", false, "track in production mode too (ENABLE_UNSAFE_MODE)")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	cfgFile := FromEnvOrFlag("CONFIG", cfgOpt, "")
	var file FileConfig
	if cfgFile != "" {
		var err error
		if file, err = LoadFile(cfgFile); err != nil {
			return ServerConfig{}, err
		}
	}
	fsrv := file.Server

	passed := passedFlags(fs)
	tel := file.Telemetry
	tel.Enabled = FromEnvOrFlagBool("TELEMETRY_ENABLED", flagBool(passed, "telemetry", enabledOpt), tel.Enabled)
	tel.LogWarnings = FromEnvOrFlagBool("LOG_WARNINGS", flagBool(passed, "log-warnings", logWarnOpt), tel.LogWarnings)
	tel.EnableInUnsafeMode = FromEnvOrFlagBool("ENABLE_UNSAFE_MODE", flagBool(passed, "unsafe", unsafeOpt), tel.EnableInUnsafeMode)

	addr := normalizeListenAndServeURL(FromEnvOrFlag("ADDRESS", addrOpt, orDefault(fsrv.Address, defaultListenAndServeAddr)))
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return ServerConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	interval, set := FromEnvOrFlagDuration("REPORT_INTERVAL", ivalOpt, -1, defaultReportInterval)
	if !set && fsrv.ReportInterval != nil {
		interval = *fsrv.ReportInterval
	}
	if interval < 0 {
		interval = 0
	}

	webhook := FromEnvOrFlag("WARNINGS_URL", webhookOpt, fsrv.WarningsURL)
	if webhook != "" {
		if _, err := url.ParseRequestURI(webhook); err != nil {
			return ServerConfig{}, fmt.Errorf("invalid warnings url: %q", webhook)
		}
	}

	minSev := strings.ToLower(FromEnvOrFlag("WARNINGS_MIN_SEVERITY", minSevOpt, orDefault(fsrv.MinSeverity, defaultMinSeverity)))
	switch minSev {
	case "info", "warning", "critical":
	default:
		return ServerConfig{}, fmt.Errorf("invalid min severity: %q", minSev)
	}

	return ServerConfig{
		Address:        addr,
		Key:            FromEnvOrFlag("KEY", keyOpt, fsrv.Key),
		DSN:            FromEnvOrFlag("DATABASE_DSN", dsnOpt, orDefault(fsrv.DSN, defaultDSN)),
		ReportFile:     FromEnvOrFlag("REPORT_FILE_PATH", fileOpt, orDefault(fsrv.ReportFile, defaultReportFile)),
		ReportInterval: interval,
		MemorySource:   strings.ToLower(FromEnvOrFlag("MEMORY_SOURCE", sourceOpt, orDefault(fsrv.MemorySource, defaultServerSource))),
		PID:            FromEnvOrFlagInt("TARGET_PID", pidOpt, fsrv.PID, 1),
		WarningsFile:   FromEnvOrFlag("WARNINGS_FILE", warnFileOpt, fsrv.WarningsFile),
		WebhookURL:     webhook,
		KafkaBrokers:   FromEnvOrFlag("KAFKA_BROKERS", brokersOpt, fsrv.KafkaBrokers),
		KafkaTopic:     FromEnvOrFlag("KAFKA_TOPIC", topicOpt, orDefault(fsrv.KafkaTopic, defaultKafkaTopic)),
		MinSeverity:    minSev,
		InsightURL:     FromEnvOrFlag("INSIGHT_URL", insightOpt, fsrv.InsightURL),
		ConfigFile:     cfgFile,
		Telemetry:      tel,
	}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func normalizeListenAndServeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ":8080"
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
