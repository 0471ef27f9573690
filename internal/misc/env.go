// Package misc holds the small helpers shared by the config, transport and storage layers.
package misc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LookupEnv returns the trimmed value of key. A blank value counts as unset.
func LookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// Getenv returns the trimmed value of key, or def when it is unset or blank.
func Getenv(key, def string) string {
	if v, ok := LookupEnv(key); ok {
		return v
	}
	return def
}

// ParseSeconds reads a bare integer as seconds and anything else as a Go duration.
// Non-positive values yield zero.
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(time.Duration(n)*time.Second, 0), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return max(d, 0), nil
}

// GetDuration reads key with ParseSeconds and returns def when it is unset or malformed.
func GetDuration(key string, def time.Duration) time.Duration {
	v, ok := LookupEnv(key)
	if !ok {
		return def
	}
	d, err := ParseSeconds(v)
	if err != nil {
		return def
	}
	return d
}

// ParseBool accepts 1/0, true/false, t/f, yes/no, y/n and on/off in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("parse bool %q", s)
}

// GetBool reads key with ParseBool and returns def when it is unset or malformed.
func GetBool(key string, def bool) bool {
	v, ok := LookupEnv(key)
	if !ok {
		return def
	}
	b, err := ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
