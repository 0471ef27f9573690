package domain

import "time"

// WarningKind classifies the condition that raised a warning.
type WarningKind string

const (
	WarnExcessiveRebuilds  WarningKind = "excessiveRebuilds"
	WarnFrequentSetState   WarningKind = "frequentSetState"
	WarnSlowFrame          WarningKind = "slowFrame"
	WarnHighMemory         WarningKind = "highMemory"
	WarnMemoryLeak         WarningKind = "memoryLeak"
	WarnDeepTree           WarningKind = "deepTree"
	WarnLargeTree          WarningKind = "largeTree"
	WarnOversizedWidget    WarningKind = "oversizedWidget"
	WarnUndisposedResource WarningKind = "undisposedResource"
)

// WarningKinds lists every kind in a stable order.
var WarningKinds = []WarningKind{
	WarnExcessiveRebuilds,
	WarnFrequentSetState,
	WarnSlowFrame,
	WarnHighMemory,
	WarnMemoryLeak,
	WarnDeepTree,
	WarnLargeTree,
	WarnOversizedWidget,
	WarnUndisposedResource,
}

// Severity grades how urgent a warning is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Warning is an immutable record of a crossed threshold.
type Warning struct {
	Timestamp  time.Time   `json:"timestamp"`
	Message    string      `json:"message"`
	Kind       WarningKind `json:"kind"`
	Severity   Severity    `json:"severity"`
	Suggestion string      `json:"suggestion,omitempty"`
	Source     string      `json:"source,omitempty"`
}
