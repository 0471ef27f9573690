package forward

import "github.com/vshulcz/Perfwatch/internal/domain"

// Event is the wire form of a forwarded warning.
type Event struct {
	Kind       domain.WarningKind `json:"kind"`
	Severity   domain.Severity    `json:"severity"`
	Message    string             `json:"message"`
	Suggestion string             `json:"suggestion,omitempty"`
	Source     string             `json:"source,omitempty"`
	Host       string             `json:"host,omitempty"`
	Timestamp  int64              `json:"ts"`
}

// EventOf converts a warning, stamping the reporting host.
func EventOf(w domain.Warning, host string) Event {
	return Event{
		Timestamp:  w.Timestamp.UnixMilli(),
		Kind:       w.Kind,
		Severity:   w.Severity,
		Message:    w.Message,
		Suggestion: w.Suggestion,
		Source:     w.Source,
		Host:       host,
	}
}
