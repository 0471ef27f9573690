package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/score"
)

var severityOrder = []domain.Severity{domain.SeverityCritical, domain.SeverityWarning, domain.SeverityInfo}

// Report renders a human-readable report with warnings grouped by severity and suggestions
// grouped by impact.
func (c *Context) Report() string {
	snap := c.Snapshot()
	return renderReport(snap, score.Calculate(snap), c.store.All(), c.engine.Generate(bg, snap))
}

func renderReport(snap domain.MetricsSnapshot, sc domain.Score, ws []domain.Warning, sugg []domain.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Performance report %s\n", snap.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Score: %d/100 (%s)\n", sc.Total, sc.Grade)
	fmt.Fprintf(&b, "  fps %d, jank %d, rebuilds %d, memory %d, warnings %d, setState %d, depth %d\n\n",
		sc.FPS, sc.Jank, sc.Rebuilds, sc.Memory, sc.Warnings, sc.SetState, sc.Depth)

	b.WriteString("Metrics\n")
	fmt.Fprintf(&b, "  FPS: %.1f (janking: %t)\n", snap.FPS, snap.IsJanking)
	fmt.Fprintf(&b, "  Frame time: build %.2f ms, raster %.2f ms, total %.2f ms\n", snap.AvgBuildMs, snap.AvgRasterMs, snap.AvgFrameMs)
	fmt.Fprintf(&b, "  Jank frames: %d of %d\n", snap.JankFrames, snap.TotalFrames)
	fmt.Fprintf(&b, "  Memory: %.1f MB (peak %.1f MB, leaking: %t)\n", snap.MemoryMB, snap.PeakMemoryMB, snap.IsLeaking)
	fmt.Fprintf(&b, "  Rebuilds: %d%s\n", snap.TotalRebuilds, topList(snap.TopRebuilders))
	fmt.Fprintf(&b, "  setState calls: %d%s\n", snap.TotalSetState, topList(snap.TopSetState))
	fmt.Fprintf(&b, "  Tree: max depth %d, %d nodes, %d oversized\n", snap.MaxDepth, snap.NodeCount, snap.OversizedCount)
	if len(snap.Undisposed) > 0 {
		fmt.Fprintf(&b, "  Undisposed: %s\n", strings.Join(snap.Undisposed, ", "))
	}

	fmt.Fprintf(&b, "\nWarnings (%d)\n", len(ws))
	if len(ws) == 0 {
		b.WriteString("  none\n")
	}
	for _, sev := range severityOrder {
		var group []domain.Warning
		for _, w := range ws {
			if w.Severity == sev {
				group = append(group, w)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  [%s] %d\n", sev, len(group))
		for _, w := range group {
			fmt.Fprintf(&b, "    - %s: %s\n", w.Kind, w.Message)
			if w.Suggestion != "" {
				fmt.Fprintf(&b, "      hint: %s\n", w.Suggestion)
			}
		}
	}

	fmt.Fprintf(&b, "\nSuggestions (%d)\n", len(sugg))
	if len(sugg) == 0 {
		b.WriteString("  none\n")
	}
	for _, impact := range domain.Impacts {
		var group []domain.Suggestion
		for _, s := range sugg {
			if s.Impact == impact {
				group = append(group, s)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  [%s impact]\n", impact)
		for _, s := range group {
			fmt.Fprintf(&b, "    - %s (%s)\n", s.Title, s.Category)
			if s.Description != "" {
				fmt.Fprintf(&b, "      %s\n", s.Description)
			}
		}
	}
	return b.String()
}

func topList(top []domain.EntityCount) string {
	if len(top) == 0 {
		return ""
	}
	parts := make([]string, 0, len(top))
	for _, e := range top {
		parts = append(parts, fmt.Sprintf("%s=%d", e.Key, e.Count))
	}
	return " (top: " + strings.Join(parts, ", ") + ")"
}
