package domain

import "time"

// Report is the persisted JSON report.
type Report struct {
	Timestamp time.Time       `json:"timestamp"`
	Warnings  []ReportWarning `json:"warnings"`
	Metrics   ReportMetrics   `json:"metrics"`
	Score     int             `json:"score"`
}

// ReportMetrics is the metric block of a persisted report.
type ReportMetrics struct {
	FPS          float64 `json:"fps"`
	BuildTimeMs  float64 `json:"buildTimeMs"`
	RasterTimeMs float64 `json:"rasterTimeMs"`
	MemoryMB     float64 `json:"memoryMB"`
	Rebuilds     int     `json:"rebuilds"`
	JankFrames   int     `json:"jankFrames"`
}

// ReportWarning is the reduced warning form stored in reports.
type ReportWarning struct {
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion"`
}

// StoredReport is a report together with the identifier assigned by a ReportStore.
type StoredReport struct {
	SavedAt time.Time `json:"savedAt"`
	ID      string    `json:"id"`
	Report  Report    `json:"report"`
}

// NewReport assembles the persisted form from a snapshot, score and warnings.
func NewReport(snap MetricsSnapshot, score Score, warnings []Warning) Report {
	ws := make([]ReportWarning, 0, len(warnings))
	for _, w := range warnings {
		ws = append(ws, ReportWarning{Message: w.Message, Severity: w.Severity, Suggestion: w.Suggestion})
	}
	return Report{
		Timestamp: snap.Timestamp,
		Score:     score.Total,
		Metrics: ReportMetrics{
			FPS:          snap.FPS,
			BuildTimeMs:  snap.AvgBuildMs,
			RasterTimeMs: snap.AvgRasterMs,
			MemoryMB:     snap.MemoryMB,
			Rebuilds:     snap.TotalRebuilds,
			JankFrames:   snap.JankFrames,
		},
		Warnings: ws,
	}
}
