package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/Perfwatch/internal/misc"
)

const (
	defaultServerAddr     = "http://localhost:8080"
	defaultReportInterval = 10
	defaultPollInterval   = 2
	defaultRateLimit      = 1
	defaultMemorySource   = "process"
)

type AgentConfig struct {
	Address        string
	Key            string
	PollInterval   time.Duration
	ReportInterval time.Duration
	RateLimit      int
	// Source is the memory source name: process, runtime or system.
	Source string
	// PID is the process sampled by the process source. Zero means the agent itself.
	PID int
}

// ENV > CLI > defaults
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt string
	var keyOpt string
	var reportOpt int
	var pollOpt int
	var limitOpt int
	var sourceOpt string
	var pidOpt int

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("server address (host:port or URL), default: %s", defaultServerAddr))
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.IntVar(&reportOpt, "r", 0, fmt.Sprintf("report interval in seconds, default: %d", defaultReportInterval))
	fs.IntVar(&pollOpt, "p", 0, fmt.Sprintf("poll interval in seconds, default: %d", defaultPollInterval))
	fs.IntVar(&limitOpt, "l", 0, "rate limit (max concurrent outgoing requests), default: 1")
	fs.StringVar(&sourceOpt, "s", "", fmt.Sprintf("memory source (process, runtime, system), default: %s", defaultMemorySource))
	fs.IntVar(&pidOpt, "pid", 0, "process to sample with the process source, default: the agent itself")

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	addr := normalizeAddressURL(FromEnvOrFlag("ADDRESS", addrOpt, defaultServerAddr))
	if _, err := url.ParseRequestURI(addr); err != nil {
		return AgentConfig{}, fmt.Errorf("invalid server address: %q", addr)
	}

	report := agentInterval("REPORT_INTERVAL", reportOpt, defaultReportInterval)
	if report <= 0 {
		return AgentConfig{}, fmt.Errorf("report interval must be > 0, got %v", report)
	}
	poll := agentInterval("POLL_INTERVAL", pollOpt, defaultPollInterval)
	if poll <= 0 {
		return AgentConfig{}, fmt.Errorf("poll interval must be > 0, got %v", poll)
	}

	source := strings.ToLower(FromEnvOrFlag("MEMORY_SOURCE", sourceOpt, defaultMemorySource))
	pid := FromEnvOrFlagInt("TARGET_PID", pidOpt, 0, 1)

	return AgentConfig{
		Address:        addr,
		Key:            FromEnvOrFlag("KEY", keyOpt, ""),
		PollInterval:   poll,
		ReportInterval: report,
		RateLimit:      FromEnvOrFlagInt("RATE_LIMIT", limitOpt, defaultRateLimit, 1),
		Source:         source,
		PID:            pid,
	}, nil
}

// agentInterval reads an interval from ENV (seconds or Go syntax), then a positive flag in
// seconds, then the default. A set but malformed ENV value yields zero so validation rejects it.
func agentInterval(envKey string, flagSeconds, defSeconds int) time.Duration {
	if _, ok := misc.LookupEnv(envKey); ok {
		return misc.GetDuration(envKey, 0)
	}
	if flagSeconds > 0 {
		return time.Duration(flagSeconds) * time.Second
	}
	return time.Duration(defSeconds) * time.Second
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultServerAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
