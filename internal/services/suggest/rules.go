package suggest

import (
	"fmt"
	"slices"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

// Rule inspects a snapshot and returns zero or more suggestions. Rules are independent
// and must not mutate the snapshot.
type Rule func(snap domain.MetricsSnapshot) []domain.Suggestion

// DefaultRules returns the built-in heuristic rule set.
func DefaultRules() []Rule {
	return []Rule{
		ExcessiveRebuilds,
		MemoryLeak,
		UndisposedResources,
		LowFPS,
		ActiveJank,
		FrequentSetState,
		DeepTree,
		OversizedWidgets,
		RecurringWarnings,
	}
}

// ExcessiveRebuilds flags every top rebuilder above 50 events.
func ExcessiveRebuilds(snap domain.MetricsSnapshot) []domain.Suggestion {
	var out []domain.Suggestion
	for _, e := range snap.TopRebuilders {
		var impact domain.Impact
		switch {
		case e.Count > 500:
			impact = domain.ImpactHigh
		case e.Count > 100:
			impact = domain.ImpactMedium
		case e.Count > 50:
			impact = domain.ImpactLow
		default:
			continue
		}
		out = append(out, domain.Suggestion{
			Title:       fmt.Sprintf("Reduce rebuilds of %s", e.Key),
			Description: fmt.Sprintf("%s rebuilt %d times. Split it so only the part that changes rebuilds, and hoist constant children.", e.Key, e.Count),
			Category:    domain.CategoryRebuilds,
			Impact:      impact,
			Entity:      e.Key,
		})
	}
	return out
}

// MemoryLeak fires while the leak heuristic is active.
func MemoryLeak(snap domain.MetricsSnapshot) []domain.Suggestion {
	if !snap.IsLeaking {
		return nil
	}
	return []domain.Suggestion{{
		Title:       "Possible memory leak",
		Description: fmt.Sprintf("Memory keeps growing (now %.1f MB, peak %.1f MB). Check for listeners, streams and controllers that are never released.", snap.MemoryMB, snap.PeakMemoryMB),
		Category:    domain.CategoryMemory,
		Impact:      domain.ImpactCritical,
	}}
}

// UndisposedResources fires when a tracked resource outlived its maximum age.
func UndisposedResources(snap domain.MetricsSnapshot) []domain.Suggestion {
	if len(snap.Undisposed) == 0 {
		return nil
	}
	entity := ""
	if len(snap.Undisposed) == 1 {
		entity = snap.Undisposed[0]
	}
	return []domain.Suggestion{{
		Title:       "Dispose long-lived resources",
		Description: fmt.Sprintf("%d resource(s) were never disposed: %v.", len(snap.Undisposed), snap.Undisposed),
		Category:    domain.CategoryResources,
		Impact:      domain.ImpactHigh,
		Entity:      entity,
		AutoFix:     true,
	}}
}

// LowFPS fires below 50 FPS, critical below 30.
func LowFPS(snap domain.MetricsSnapshot) []domain.Suggestion {
	if snap.FPS >= 50 {
		return nil
	}
	impact := domain.ImpactHigh
	if snap.FPS < 30 {
		impact = domain.ImpactCritical
	}
	return []domain.Suggestion{{
		Title:       "Frame rate is low",
		Description: fmt.Sprintf("Running at %.0f FPS with %.1f ms average build and %.1f ms average raster.", snap.FPS, snap.AvgBuildMs, snap.AvgRasterMs),
		Category:    domain.CategoryRendering,
		Impact:      impact,
	}}
}

// ActiveJank fires while jank frames cluster.
func ActiveJank(snap domain.MetricsSnapshot) []domain.Suggestion {
	if !snap.IsJanking {
		return nil
	}
	return []domain.Suggestion{{
		Title:       "Frames are janking",
		Description: fmt.Sprintf("%d of %d frames missed the budget. Move work off the frame path and cache expensive paints.", snap.JankFrames, snap.TotalFrames),
		Category:    domain.CategoryRendering,
		Impact:      domain.ImpactHigh,
	}}
}

// FrequentSetState flags callers above 20 state mutations, high above 50.
func FrequentSetState(snap domain.MetricsSnapshot) []domain.Suggestion {
	var out []domain.Suggestion
	for _, e := range snap.TopSetState {
		if e.Count <= 20 {
			continue
		}
		impact := domain.ImpactMedium
		if e.Count > 50 {
			impact = domain.ImpactHigh
		}
		out = append(out, domain.Suggestion{
			Title:       fmt.Sprintf("Batch state updates in %s", e.Key),
			Description: fmt.Sprintf("%s mutated state %d times. Coalesce updates or move the state closer to where it is read.", e.Key, e.Count),
			Category:    domain.CategoryState,
			Impact:      impact,
			Entity:      e.Key,
		})
	}
	return out
}

// DeepTree fires above depth 30, high above 50.
func DeepTree(snap domain.MetricsSnapshot) []domain.Suggestion {
	if snap.MaxDepth <= 30 {
		return nil
	}
	impact := domain.ImpactMedium
	if snap.MaxDepth > 50 {
		impact = domain.ImpactHigh
	}
	return []domain.Suggestion{{
		Title:       "Flatten the widget tree",
		Description: fmt.Sprintf("The tree is %d levels deep with %d nodes.", snap.MaxDepth, snap.NodeCount),
		Category:    domain.CategoryLayout,
		Impact:      impact,
	}}
}

// OversizedWidgets fires when any oversized-widget warning is present.
func OversizedWidgets(snap domain.MetricsSnapshot) []domain.Suggestion {
	n := snap.WarningsByKind[domain.WarnOversizedWidget]
	if n == 0 && snap.OversizedCount == 0 {
		return nil
	}
	return []domain.Suggestion{{
		Title:       "Constrain oversized widgets",
		Description: fmt.Sprintf("%d widget(s) are laid out far beyond the viewport.", max(n, snap.OversizedCount)),
		Category:    domain.CategoryLayout,
		Impact:      domain.ImpactMedium,
	}}
}

// RecurringWarnings flags every warning kind reported at least five times.
func RecurringWarnings(snap domain.MetricsSnapshot) []domain.Suggestion {
	var out []domain.Suggestion
	for _, kind := range domain.WarningKinds {
		n := snap.WarningsByKind[kind]
		if n < 5 {
			continue
		}
		out = append(out, domain.Suggestion{
			Title:       fmt.Sprintf("Recurring %s warnings", kind),
			Description: fmt.Sprintf("%s was reported %d times. Fix the root cause rather than the symptom.", kind, n),
			Category:    domain.CategoryGeneral,
			Impact:      domain.ImpactMedium,
		})
	}
	return out
}

// Rank stably sorts suggestions by descending impact. Equal impacts keep rule order.
func Rank(s []domain.Suggestion) []domain.Suggestion {
	slices.SortStableFunc(s, func(a, b domain.Suggestion) int {
		return b.Impact.Rank() - a.Impact.Rank()
	})
	return s
}
