// Package risk defines the ordinal risk-level enumeration shared by the
// Safety Classifier, Confirmation Gate, and Plan Orchestrator.
package risk

// Level is an ordered safety classification. Ordering is significant:
// policies express thresholds against it (e.g. "auto-execute everything
// ≤ LOW").
type Level int

const (
	Safe Level = iota
	Low
	Medium
	High
	Critical
)

// String renders the level the way it appears in prompts and journal
// descriptions.
func (l Level) String() string {
	switch l {
	case Safe:
		return "SAFE"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AtLeast reports whether l is at or above threshold.
func (l Level) AtLeast(threshold Level) bool {
	return l >= threshold
}
