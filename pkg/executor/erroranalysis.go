package executor

import (
	"os"
	"regexp"
	"strings"
)

// errorPattern pairs a regex against stderr text with a human explanation
// and fix suggestions, mirroring the distilled reference's ERROR_PATTERNS
// table.
type errorPattern struct {
	pattern       *regexp.Regexp
	probableCause string
	fixes         []string
}

var errorPatterns = []errorPattern{
	{
		pattern:       regexp.MustCompile(`(?i)no such file or directory`),
		probableCause: "the specified file or directory does not exist",
		fixes: []string{
			"check if the path is correct",
			"use ls to view available files",
			"use find to search for the file",
		},
	},
	{
		pattern:       regexp.MustCompile(`(?i)permission denied`),
		probableCause: "insufficient permissions for this operation",
		fixes: []string{
			"check file permissions with ls -l",
			"use sudo for operations requiring elevated privileges",
			"change permissions with chmod",
		},
	},
	{
		pattern:       regexp.MustCompile(`(?i)command not found`),
		probableCause: "the command is not installed or not in PATH",
		fixes: []string{
			"check if the command is installed",
			"install the package containing the command",
			"check your PATH environment variable",
		},
	},
	{
		pattern:       regexp.MustCompile(`(?i)syntax error`),
		probableCause: "there is a syntax error in the command",
		fixes: []string{
			"check for missing quotes or brackets",
			"check the command documentation for correct syntax",
			"simplify the command and try again",
		},
	},
	{
		pattern:       regexp.MustCompile(`(?i)(connection refused|network is unreachable)`),
		probableCause: "network connection issue",
		fixes: []string{
			"check if the host is reachable",
			"verify network connectivity",
			"check if the service is running on the target host",
		},
	},
}

// FileIssue flags a path argument that looks like it caused the failure.
type FileIssue struct {
	Path   string
	Exists bool
}

// ErrorAnalysis is the §4.3 error_analysis sub-record, produced on
// non-zero exit. It is best-effort and never fails the call.
type ErrorAnalysis struct {
	Summary          string
	ProbableCause    string
	FixSuggestions   []string
	FileIssues       []FileIssue
	StructuralIssues []string
}

// AnalyzeError inspects a failed command's stderr and arguments and
// produces a best-effort diagnosis.
func AnalyzeError(command, stderr string) ErrorAnalysis {
	analysis := ErrorAnalysis{
		Summary:       extractSummary(stderr, errorPatterns),
		ProbableCause: "unknown error",
	}

	for _, p := range errorPatterns {
		if p.pattern.MatchString(stderr) {
			analysis.ProbableCause = p.probableCause
			analysis.FixSuggestions = p.fixes
			break
		}
	}

	analysis.StructuralIssues = analyzeStructure(command)
	analysis.FileIssues = checkFileReferences(command)

	return analysis
}

func extractSummary(stderr string, patterns []errorPattern) string {
	var lines []string
	for _, l := range strings.Split(stderr, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return "unknown error"
	}

	limit := len(lines)
	if limit > 3 {
		limit = 3
	}
	for _, line := range lines[:limit] {
		if strings.Contains(strings.ToLower(line), "error") {
			return line
		}
		for _, p := range patterns {
			if p.pattern.MatchString(line) {
				return line
			}
		}
	}
	return lines[0]
}

func analyzeStructure(command string) []string {
	var issues []string
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return []string{"command parsing failed"}
	}

	base := fields[0]
	switch base {
	case ">", ">>", "<":
		issues = append(issues, "redirect symbol used as command")
	case "|":
		issues = append(issues, "pipe symbol used as command")
	}

	if len(fields) == 1 {
		switch base {
		case "cp", "mv", "ln":
			issues = append(issues, base+" requires source and destination arguments")
		case "grep", "sed", "awk":
			issues = append(issues, base+" requires a pattern and input")
		}
	}

	for _, tok := range fields[1:] {
		if strings.HasPrefix(tok, "-") && !strings.HasPrefix(tok, "--") && len(tok) > 2 {
			for _, c := range tok[1:] {
				if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
					issues = append(issues, "potentially malformed flag: "+tok)
					break
				}
			}
		}
	}

	return issues
}

func checkFileReferences(command string) []FileIssue {
	var issues []FileIssue
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return issues
	}

	operators := map[string]bool{"|": true, ">": true, ">>": true, "<": true, "&&": true, "||": true, ";": true}

	for _, tok := range fields[1:] {
		if strings.HasPrefix(tok, "-") || operators[tok] {
			continue
		}
		if !strings.ContainsAny(tok, "/.") {
			continue
		}
		if _, err := os.Stat(tok); err != nil {
			if os.IsNotExist(err) {
				issues = append(issues, FileIssue{Path: tok, Exists: false})
			}
			continue
		}
		issues = append(issues, FileIssue{Path: tok, Exists: true})
	}

	return issues
}
