// Package confirm implements the Confirmation Gate: it turns a classified
// command plus user preferences and per-invocation flags into a decision —
// allow, prompt, deny, or present-only — without performing any terminal
// I/O itself.
package confirm

import (
	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/risk"
)

// Decision is the gate's verdict for one command.
type Decision int

const (
	// Deny means the command must not run; no preference overrides this.
	Deny Decision = iota
	// PresentOnly means show the preview but neither prompt nor execute.
	PresentOnly
	// Prompt means the caller must ask the user and act on the answer.
	Prompt
	// Allow means execute without interaction.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Deny:
		return "deny"
	case PresentOnly:
		return "present-only"
	case Prompt:
		return "prompt"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// AutoExecute is the auto_execute[level] preference table. Zero value
// (false for every field) is not the spec default — callers should start
// from DefaultAutoExecute.
type AutoExecute struct {
	Safe     bool
	Low      bool
	Medium   bool
	High     bool
	Critical bool
}

// DefaultAutoExecute matches §4.2's stated defaults: SAFE and LOW
// auto-execute, everything above prompts.
func DefaultAutoExecute() AutoExecute {
	return AutoExecute{Safe: true, Low: true}
}

func (a AutoExecute) forLevel(l risk.Level) bool {
	switch l {
	case risk.Safe:
		return a.Safe
	case risk.Low:
		return a.Low
	case risk.Medium:
		return a.Medium
	case risk.High:
		return a.High
	case risk.Critical:
		return a.Critical
	default:
		return false
	}
}

// Preferences is the authoritative preference bundle of §4.2.
type Preferences struct {
	AutoExecute       AutoExecute
	ConfirmAllActions bool
	TrustedCommands   map[string]bool
	UntrustedCommands map[string]bool
}

// NewPreferences returns preferences with the documented defaults and
// empty trust sets.
func NewPreferences() Preferences {
	return Preferences{
		AutoExecute:       DefaultAutoExecute(),
		TrustedCommands:   map[string]bool{},
		UntrustedCommands: map[string]bool{},
	}
}

// Flags are explicit per-invocation overrides.
type Flags struct {
	Force  bool
	DryRun bool
}

// Gate decides what happens to one classified command.
type Gate struct {
	Preferences Preferences
}

// New creates a Gate with the given preferences.
func New(prefs Preferences) *Gate {
	return &Gate{Preferences: prefs}
}

// Decide implements the §4.2 algorithm, in order, for one classified
// command. command is the original command text, used for trust-list
// lookups (steps 4-5).
func (g *Gate) Decide(command string, result classifier.Result, flags Flags) Decision {
	// 1. Refusal is unconditional; no override exists.
	if result.Refused {
		return Deny
	}
	// 2. Dry-run short-circuits before any prompting or trust checks.
	if flags.DryRun {
		return PresentOnly
	}
	// 3. Force bypasses everything except refusal.
	if flags.Force {
		return Allow
	}
	// 4. Untrusted commands always prompt.
	if g.Preferences.UntrustedCommands[command] {
		return Prompt
	}
	// 5. Trusted commands always auto-execute.
	if g.Preferences.TrustedCommands[command] {
		return Allow
	}
	// 6. A blanket confirm-everything preference prompts.
	if g.Preferences.ConfirmAllActions {
		return Prompt
	}
	// 7. Fall back to the per-level auto_execute table.
	if g.Preferences.AutoExecute.forLevel(result.RiskLevel) {
		return Allow
	}
	return Prompt
}
