package tracker

import (
	"time"

	"github.com/vshulcz/Perfwatch/internal/clock"
	"github.com/vshulcz/Perfwatch/internal/domain"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type sink struct {
	got []domain.Warning
}

func (s *sink) emit(w domain.Warning) { s.got = append(s.got, w) }

func (s *sink) count(kind domain.WarningKind) int {
	n := 0
	for _, w := range s.got {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func (s *sink) last() domain.Warning {
	if len(s.got) == 0 {
		return domain.Warning{}
	}
	return s.got[len(s.got)-1]
}

func newClock() *clock.Manual { return clock.NewManual(epoch) }
