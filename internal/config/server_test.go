package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func ds(sec int) time.Duration { return time.Duration(sec) * time.Second }

var serverEnv = []string{
	"ADDRESS", "KEY", "DATABASE_DSN", "REPORT_FILE_PATH", "REPORT_INTERVAL", "MEMORY_SOURCE", "TARGET_PID",
	"WARNINGS_FILE", "WARNINGS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC", "WARNINGS_MIN_SEVERITY", "INSIGHT_URL", "CONFIG",
	"TELEMETRY_ENABLED", "LOG_WARNINGS", "ENABLE_UNSAFE_MODE",
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfig(t *testing.T) {
	defaults := ServerConfig{
		Address:        defaultListenAndServeAddr,
		ReportFile:     defaultReportFile,
		ReportInterval: ds(defaultReportInterval),
		MemorySource:   defaultServerSource,
		KafkaTopic:     defaultKafkaTopic,
		MinSeverity:    defaultMinSeverity,
	}
	with := func(mut func(*ServerConfig)) ServerConfig {
		c := defaults
		mut(&c)
		return c
	}

	tests := []struct {
		env     map[string]string
		name    string
		wantErr string
		args    []string
		want    ServerConfig
	}{
		{
			name: "defaults",
			args: []string{},
			env:  map[string]string{},
			want: defaults,
		},
		{
			name: "env override flags",
			args: []string{"-a", "http://127.0.0.1:9090", "-i", "42", "-f", "flags.json", "-warnings-file", "flags.log", "-kafka-topic", "t1"},
			env: map[string]string{
				"ADDRESS":          "0.0.0.0:1234",
				"REPORT_INTERVAL":  "777s",
				"REPORT_FILE_PATH": "env.json",
				"WARNINGS_FILE":    "env-warnings.log",
				"WARNINGS_URL":     "https://hooks.example.com/perf",
				"KAFKA_TOPIC":      "t2",
			},
			want: with(func(c *ServerConfig) {
				c.Address = "0.0.0.0:1234"
				c.ReportFile = "env.json"
				c.ReportInterval = 777 * time.Second
				c.WarningsFile = "env-warnings.log"
				c.WebhookURL = "https://hooks.example.com/perf"
				c.KafkaTopic = "t2"
			}),
		},
		{
			name: "flags only",
			args: []string{"-d", "postgres://u@db/perf", "-k", "s3", "-s", "System", "-pid", "77", "-min-severity", "critical", "-insight-url", "http://ai:9000", "-kafka-brokers", "k1:9092,k2:9092"},
			want: with(func(c *ServerConfig) {
				c.DSN = "postgres://u@db/perf"
				c.Key = "s3"
				c.MemorySource = "system"
				c.PID = 77
				c.MinSeverity = "critical"
				c.InsightURL = "http://ai:9000"
				c.KafkaBrokers = "k1:9092,k2:9092"
			}),
		},
		{
			name:    "invalid listen address: URL without port",
			args:    []string{"-a", "http://example.com"},
			wantErr: "invalid listen address",
		},
		{
			name:    "invalid listen address: IPv6 without port",
			args:    []string{"-a", "http://[::1]"},
			wantErr: "invalid listen address",
		},
		{
			name:    "invalid min severity",
			args:    []string{"-min-severity", "loud"},
			wantErr: "invalid min severity",
		},
		{
			name:    "invalid webhook",
			env:     map[string]string{"WARNINGS_URL": "not a url"},
			wantErr: "invalid warnings url",
		},
		{
			name:    "missing config file",
			args:    []string{"-c", "/nonexistent/perfwatch.yaml"},
			wantErr: "open config",
		},
		{
			name: "interval == 0 via flag disables periodic reports",
			args: []string{"-i", "0"},
			want: with(func(c *ServerConfig) { c.ReportInterval = 0 }),
		},
		{
			name: "address accepts plain port (normalized to :port)",
			args: []string{"-a", "9090"},
			want: with(func(c *ServerConfig) { c.Address = ":9090" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range serverEnv {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := LoadServerConfig(tt.args, nil)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("config mismatch:\n got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestLoadServerConfig_YAML(t *testing.T) {
	for _, k := range serverEnv {
		t.Setenv(k, "")
	}
	path := writeYAML(t, `
server:
  address: ":7070"
  reportInterval: 90s
  dsn: postgres://file@db/perf
  minSeverity: warning
telemetry:
  rebuildWarningCount: 40
  warningThreshold: 8ms
  memoryCriticalMB: 900
  track:
    animations: false
`)
	t.Setenv("DATABASE_DSN", "postgres://env@db/perf")

	got, err := LoadServerConfig([]string{"-c", path, "-min-severity", "critical"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Address != ":7070" || got.ReportInterval != 90*time.Second {
		t.Errorf("file values not applied: %+v", got)
	}
	if got.DSN != "postgres://env@db/perf" {
		t.Errorf("DSN: env should win over file, got %q", got.DSN)
	}
	if got.MinSeverity != "critical" {
		t.Errorf("MinSeverity: flag should win over file, got %q", got.MinSeverity)
	}
	tel := got.Telemetry
	if tel.RebuildWarningCount != 40 || tel.WarningThreshold != 8*time.Millisecond || tel.MemoryCriticalMB != 900 {
		t.Errorf("telemetry = %+v", tel)
	}
	if tel.Track.Animations == nil || *tel.Track.Animations {
		t.Errorf("track.animations = %v", tel.Track.Animations)
	}
	if tel.Track.Memory != nil || tel.Enabled != nil {
		t.Error("unset toggles must stay nil")
	}
}

func TestLoadServerConfig_TelemetryToggles(t *testing.T) {
	path := writeYAML(t, `
telemetry:
  enabled: false
  logWarnings: true
`)
	yes, no := true, false
	tests := []struct {
		name                  string
		env                   map[string]string
		args                  []string
		enabled, logW, unsafe *bool
	}{
		{name: "nothing set", args: nil},
		{name: "file only", args: []string{"-c", path}, enabled: &no, logW: &yes},
		{name: "flag beats file", args: []string{"-c", path, "-telemetry", "-log-warnings=false"}, enabled: &yes, logW: &no},
		{
			name:    "env beats flag",
			env:     map[string]string{"TELEMETRY_ENABLED": "off", "ENABLE_UNSAFE_MODE": "yes"},
			args:    []string{"-telemetry", "-unsafe=false"},
			enabled: &no, unsafe: &yes,
		},
		{
			name:    "malformed env falls through",
			env:     map[string]string{"LOG_WARNINGS": "sometimes"},
			args:    []string{"-c", path},
			enabled: &no, logW: &yes,
		},
	}
	same := func(got, want *bool) bool {
		if got == nil || want == nil {
			return got == want
		}
		return *got == *want
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range serverEnv {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := LoadServerConfig(tt.args, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tel := got.Telemetry
			if !same(tel.Enabled, tt.enabled) || !same(tel.LogWarnings, tt.logW) || !same(tel.EnableInUnsafeMode, tt.unsafe) {
				t.Errorf("toggles = %v/%v/%v, want %v/%v/%v",
					tel.Enabled, tel.LogWarnings, tel.EnableInUnsafeMode, tt.enabled, tt.logW, tt.unsafe)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "empty file", body: ""},
		{name: "unknown field", body: "telemetry:\n  bogus: 1\n", wantErr: "field bogus not found"},
		{name: "bad duration", body: "telemetry:\n  historyInterval: soon\n", wantErr: "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeYAML(t, tt.body))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizeListenAndServeURL(t *testing.T) {
	cases := map[string]string{
		"":                        ":8080",
		"   ":                     ":8080",
		"8080":                    ":8080",
		" 9090 ":                  ":9090",
		":8081":                   ":8081",
		"0.0.0.0:9090":            "0.0.0.0:9090",
		"http://0.0.0.0:9090":     "0.0.0.0:9090",
		"https://example.com:443": "example.com:443",
		"http://example.com":      "example.com",
		"[::1]:8080":              "[::1]:8080",
	}

	for in, want := range cases {
		if got := normalizeListenAndServeURL(in); got != want {
			t.Errorf("normalizeListenAndServeURL(%q): want %q, got %q", in, want, got)
		}
	}
}
