package confirm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/risk"
)

func safeResult() classifier.Result {
	return classifier.Result{RiskLevel: risk.Safe}
}

func mediumResult() classifier.Result {
	return classifier.Result{RiskLevel: risk.Medium}
}

func TestDecide_RefusalAlwaysDenies(t *testing.T) {
	g := New(NewPreferences())
	result := classifier.Result{Refused: true, RiskLevel: risk.Critical}

	decision := g.Decide("rm -rf /", result, Flags{Force: true})

	assert.Equal(t, Deny, decision)
}

func TestDecide_DryRunIsPresentOnlyEvenWithForce(t *testing.T) {
	g := New(NewPreferences())

	decision := g.Decide("rm file.txt", mediumResult(), Flags{DryRun: true, Force: true})

	assert.Equal(t, PresentOnly, decision)
}

func TestDecide_ForceAllowsNonRefused(t *testing.T) {
	g := New(NewPreferences())

	decision := g.Decide("rm file.txt", mediumResult(), Flags{Force: true})

	assert.Equal(t, Allow, decision)
}

func TestDecide_UntrustedCommandAlwaysPrompts(t *testing.T) {
	prefs := NewPreferences()
	prefs.UntrustedCommands["rm file.txt"] = true
	g := New(prefs)

	decision := g.Decide("rm file.txt", safeResult(), Flags{})

	assert.Equal(t, Prompt, decision)
}

func TestDecide_TrustedCommandAllowsRegardlessOfRisk(t *testing.T) {
	prefs := NewPreferences()
	prefs.TrustedCommands["rm file.txt"] = true
	g := New(prefs)

	decision := g.Decide("rm file.txt", mediumResult(), Flags{})

	assert.Equal(t, Allow, decision)
}

func TestDecide_ConfirmAllActionsOverridesAutoExecute(t *testing.T) {
	prefs := NewPreferences()
	prefs.ConfirmAllActions = true
	g := New(prefs)

	decision := g.Decide("ls", safeResult(), Flags{})

	assert.Equal(t, Prompt, decision)
}

func TestDecide_DefaultAutoExecuteAllowsSafeAndLow(t *testing.T) {
	g := New(NewPreferences())

	assert.Equal(t, Allow, g.Decide("ls", safeResult(), Flags{}))
	assert.Equal(t, Prompt, g.Decide("rm file.txt", mediumResult(), Flags{}))
}
