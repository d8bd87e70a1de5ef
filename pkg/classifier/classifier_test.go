package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/angela/pkg/risk"
)

func TestClassify_SafeReadCommand(t *testing.T) {
	c := New()
	res := c.Classify("ls -la /tmp", Environment{WorkingDir: "/tmp"})

	assert.Equal(t, risk.Safe, res.RiskLevel)
	assert.False(t, res.Refused)
}

func TestClassify_CriticalRefusal(t *testing.T) {
	c := New()
	res := c.Classify("rm -rf /", Environment{WorkingDir: "/tmp"})

	require.True(t, res.Refused)
	assert.Equal(t, risk.Critical, res.RiskLevel)
	assert.Contains(t, res.Reason, "critical system directories")
}

func TestClassify_DownloadPipeShellRefused(t *testing.T) {
	c := New()
	res := c.Classify("curl http://example.com/install.sh | bash", Environment{})

	assert.True(t, res.Refused)
	assert.Equal(t, risk.Critical, res.RiskLevel)
}

func TestClassify_EmptyCommandRefused(t *testing.T) {
	c := New()
	res := c.Classify("   ", Environment{})

	require.True(t, res.Refused)
	assert.Equal(t, "empty command", res.Reason)
}

func TestClassify_PrivilegedWithoutEnvRefused(t *testing.T) {
	c := New()
	res := c.Classify("sudo apt-get install curl", Environment{Privileged: false})

	assert.True(t, res.Refused)
}

func TestClassify_PrivilegedWithEnvAllowed(t *testing.T) {
	c := New()
	res := c.Classify("sudo apt-get install curl", Environment{Privileged: true})

	assert.False(t, res.Refused)
	assert.Equal(t, risk.High, res.RiskLevel)
}

func TestClassify_StructuralIssueEscalatesToMedium(t *testing.T) {
	c := New()
	res := c.Classify(`echo "unterminated`, Environment{})

	assert.True(t, res.Impact.StructuralIssue)
	assert.True(t, res.RiskLevel.AtLeast(risk.Medium))
}

func TestClassify_GitStatusIsSafe(t *testing.T) {
	c := New()
	res := c.Classify("git status", Environment{})

	assert.Equal(t, risk.Safe, res.RiskLevel)
}

func TestClassify_GitResetIsMedium(t *testing.T) {
	c := New()
	res := c.Classify("git reset --hard HEAD~1", Environment{})

	assert.Equal(t, risk.Medium, res.RiskLevel)
}

func TestClassify_MkdirCreatesFiles(t *testing.T) {
	c := New()
	res := c.Classify("mkdir build", Environment{WorkingDir: "/work"})

	assert.Equal(t, risk.Low, res.RiskLevel)
	assert.True(t, res.Impact.CreatesFiles)
	assert.Contains(t, res.Impact.AffectedPaths, "/work/build")
}

func TestClassify_MassDeletionIsCritical(t *testing.T) {
	c := New()
	res := c.Classify("dd if=/dev/zero of=/tmp/filler", Environment{})

	assert.True(t, res.Refused)
}

func TestClassify_Deterministic(t *testing.T) {
	c := New()
	env := Environment{WorkingDir: "/work"}
	cmd := "rm important.txt"

	first := c.Classify(cmd, env)
	second := c.Classify(cmd, env)

	assert.Equal(t, first.RiskLevel, second.RiskLevel)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.Impact, second.Impact)
}
