package config

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/vshulcz/Perfwatch/internal/misc"
)

// FromEnvOrFlag resolves a string: ENV, then a non-blank flag, then def.
func FromEnvOrFlag(envKey, flagVal, def string) string {
	if v, ok := misc.LookupEnv(envKey); ok {
		return v
	}
	if v := strings.TrimSpace(flagVal); v != "" {
		return v
	}
	return def
}

// FromEnvOrFlagBool resolves a toggle that may stay unset. flagVal is nil when the flag was
// not passed and def is the value of the layer below; a malformed ENV value is ignored.
func FromEnvOrFlagBool(envKey string, flagVal, def *bool) *bool {
	if v, ok := misc.LookupEnv(envKey); ok {
		if b, err := misc.ParseBool(v); err == nil {
			return &b
		}
	}
	if flagVal != nil {
		return flagVal
	}
	return def
}

// FromEnvOrFlagInt resolves an integer, skipping ENV and flag values below floor.
func FromEnvOrFlagInt(envKey string, flagVal, def, floor int) int {
	if v, ok := misc.LookupEnv(envKey); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= floor {
			return n
		}
	}
	if flagVal != 0 && flagVal >= floor {
		return flagVal
	}
	return def
}

// FromEnvOrFlagDuration resolves an interval given as seconds or Go syntax in ENV, or as
// seconds in a flag whose unset value is sentinel. The bool reports whether ENV or the flag
// supplied it; a malformed ENV value falls through to the flag.
func FromEnvOrFlagDuration(envKey string, flagSeconds, sentinel, defSeconds int) (time.Duration, bool) {
	if v, ok := misc.LookupEnv(envKey); ok {
		if d, err := misc.ParseSeconds(v); err == nil {
			return d, true
		}
	}
	if flagSeconds != sentinel {
		return time.Duration(flagSeconds) * time.Second, true
	}
	return time.Duration(defSeconds) * time.Second, false
}

// passedFlags returns the names of the flags present on the command line.
func passedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// flagBool returns &v when name was passed, nil otherwise.
func flagBool(passed map[string]bool, name string, v bool) *bool {
	if !passed[name] {
		return nil
	}
	return &v
}
