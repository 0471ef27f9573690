package forward

import "github.com/vshulcz/Perfwatch/pkg/observer"

// Sink receives forwarded warning events.
type Sink = observer.Observer[Event]

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc = observer.ObserverFunc[Event]

// Subject fans out events to registered sinks.
type Subject = observer.Subject[Event]

// NewSubject creates a subject optionally pre-populated with sinks.
func NewSubject(sinks ...Sink) *Subject {
	return observer.NewSubject[Event](sinks...)
}
