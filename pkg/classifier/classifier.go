// Package classifier implements the Safety Classifier: it assigns a risk
// level and refusal verdict to a proposed command from its text and
// environment, and extracts its filesystem impact. It never executes
// anything and never mutates the filesystem.
package classifier

import (
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/alantheprice/angela/pkg/risk"
)

// Environment carries the ambient facts the classifier needs that are not
// part of the command text itself.
type Environment struct {
	WorkingDir string
	Privileged bool
}

// Result is the classifier's verdict for one command (§4.1).
type Result struct {
	RiskLevel risk.Level
	Reason    string
	Impact    Impact
	Refused   bool
}

// Classifier produces classification results. It holds no mutable state —
// construction is cheap and instances are safe for concurrent use.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify implements §4.1. It is deterministic: Classify(cmd) always
// returns the same verdict for the same (cmd, env).
func (c *Classifier) Classify(command string, env Environment) Result {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return Result{
			RiskLevel: risk.Critical,
			Reason:    "empty command",
			Refused:   true,
		}
	}

	if rule, ok := matchRefusal(trimmed); ok {
		return Result{
			RiskLevel: risk.Critical,
			Reason:    rule.message,
			Refused:   true,
			Impact:    c.extractImpact(trimmed, env),
		}
	}

	if requiresPrivilege(trimmed) && !env.Privileged {
		return Result{
			RiskLevel: risk.Critical,
			Reason:    "this command requires elevated privileges the current process does not have",
			Refused:   true,
			Impact:    c.extractImpact(trimmed, env),
		}
	}

	impact := c.extractImpact(trimmed, env)
	level, reason := c.score(trimmed, impact)

	if impact.StructuralIssue {
		escalated := level + 1
		if escalated < risk.Medium {
			escalated = risk.Medium
		}
		if escalated > risk.Critical {
			escalated = risk.Critical
		}
		level = escalated
		reason = "command could not be fully parsed (structural issue); risk escalated by one level, to at least MEDIUM"
	}

	return Result{RiskLevel: level, Reason: reason, Impact: impact}
}

// score applies the risk-scoring heuristics of §4.1 to a command that
// survived refusal and privilege checks.
func (c *Classifier) score(command string, impact Impact) (risk.Level, string) {
	base := baseCommand(command)

	if readOnlyCommands[base] {
		return risk.Safe, "read-only introspection command"
	}
	if base == "git" {
		sub := gitSubcommand(command)
		if gitReadOnlySubcommands[sub] {
			return risk.Safe, "read-only git command"
		}
		if gitMutatingSubcommands[sub] {
			return risk.Medium, "git command may discard uncommitted work"
		}
	}
	if massDeletionCommands[base] {
		return risk.Critical, "mass deletion or disk-level operation"
	}
	if packageInstallCommands[base] {
		return risk.High, "installs packages or modifies system configuration"
	}
	if impact.Destructive {
		return risk.Medium, "modifies or overwrites existing files"
	}
	if impact.CreatesFiles {
		return risk.Low, "creates new files or directories"
	}
	if impact.ModifiesFiles {
		return risk.Medium, "modifies existing files"
	}
	return risk.Low, "command shape not recognized as read-only; defaulting to LOW"
}

func baseCommand(command string) string {
	fields := strings.Fields(command)
	// A leading privilege-escalation prefix is skipped so the wrapped
	// command is what gets scored.
	for len(fields) > 1 && (fields[0] == "sudo" || fields[0] == "pkexec") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}

func gitSubcommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// extractImpact parses the command shell-token aware and enumerates path
// arguments, resolving each to an absolute path. A parse failure (e.g.
// unbalanced quotes) sets StructuralIssue so the caller can escalate risk.
func (c *Classifier) extractImpact(command string, env Environment) Impact {
	impact := Impact{Operations: []string{}}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		impact.StructuralIssue = true
		// Fall back to naive whitespace splitting so impact extraction
		// still returns best-effort paths.
		for _, tok := range strings.Fields(command) {
			if looksLikePath(tok) {
				impact.AffectedPaths = append(impact.AffectedPaths, resolvePath(tok, env.WorkingDir))
			}
		}
		return impact
	}

	words := collectWords(file)
	base := baseCommand(command)
	// Every non-flag argument of a filesystem command names a path, even
	// one without a separator (mkdir build).
	fsCommand := base == "mkdir" || base == "touch" || base == "rm" || base == "rmdir" || base == "mv" || base == "cp"

	for _, w := range words {
		if looksLikePath(w) || (fsCommand && w != "" && !strings.HasPrefix(w, "-")) {
			impact.AffectedPaths = append(impact.AffectedPaths, resolvePath(w, env.WorkingDir))
		}
	}

	switch {
	case readOnlyCommands[base]:
		impact.Operations = append(impact.Operations, OpRead)
	case base == "mkdir" || base == "touch":
		impact.Operations = append(impact.Operations, OpCreate)
		impact.CreatesFiles = true
	case base == "rm" || base == "rmdir" || massDeletionCommands[base]:
		impact.Operations = append(impact.Operations, OpDelete)
		impact.Destructive = true
	case base == "mv" || base == "cp":
		impact.Operations = append(impact.Operations, OpModify)
		impact.ModifiesFiles = true
	case base == "chmod" || base == "chown":
		impact.Operations = append(impact.Operations, OpModify)
		impact.ModifiesFiles = true
	case base == "curl" || base == "wget" || base == "ssh":
		impact.Operations = append(impact.Operations, OpNetwork)
	}

	if requiresPrivilege(command) {
		impact.Operations = append(impact.Operations, OpPrivilege)
	}

	return impact
}

// collectWords walks the parsed file and returns the literal text of every
// word in every call expression, skipping the first word of each segment
// (the executable name itself is not a path argument).
func collectWords(file *syntax.File) []string {
	var words []string
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return true
		}
		for i, w := range call.Args {
			if i == 0 {
				continue
			}
			words = append(words, wordLiteral(w))
		}
		for _, r := range call.Redirs {
			if r.Word != nil {
				words = append(words, wordLiteral(r.Word))
			}
		}
		return true
	})
	return words
}

func wordLiteral(w *syntax.Word) string {
	var b strings.Builder
	for _, part := range w.Parts {
		if lit, ok := part.(*syntax.Lit); ok {
			b.WriteString(lit.Value)
		}
	}
	return b.String()
}

func looksLikePath(tok string) bool {
	if tok == "" || strings.HasPrefix(tok, "-") {
		return false
	}
	return strings.ContainsAny(tok, "/.") || strings.HasPrefix(tok, "~")
}

func resolvePath(p, workingDir string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}
	return filepath.Clean(filepath.Join(workingDir, p))
}
