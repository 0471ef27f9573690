package domain

// Category groups suggestions by the area they address.
type Category string

const (
	CategoryRebuilds  Category = "rebuilds"
	CategoryMemory    Category = "memory"
	CategoryRendering Category = "rendering"
	CategoryState     Category = "state"
	CategoryLayout    Category = "layout"
	CategoryResources Category = "resources"
	CategoryGeneral   Category = "general"
)

// Impact estimates how much acting on a suggestion would help.
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// Rank orders impacts, higher is more important.
func (i Impact) Rank() int {
	switch i {
	case ImpactCritical:
		return 3
	case ImpactHigh:
		return 2
	case ImpactMedium:
		return 1
	default:
		return 0
	}
}

// Impacts lists impacts from most to least important.
var Impacts = []Impact{ImpactCritical, ImpactHigh, ImpactMedium, ImpactLow}

// Suggestion is an actionable optimization hint.
type Suggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Impact      Impact   `json:"impact"`
	Entity      string   `json:"entity,omitempty"`
	CodeExample string   `json:"codeExample,omitempty"`
	AutoFix     bool     `json:"autoFix"`
}
