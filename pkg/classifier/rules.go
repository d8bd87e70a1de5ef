package classifier

import "regexp"

// refusalRule maps a command shape to a refusal verdict with a message.
// This is the closed table required by §4.1; every entry is grounded on the
// distilled source's DANGEROUS_PATTERNS table.
type refusalRule struct {
	id      string
	pattern *regexp.Regexp
	message string
}

var refusalRules = []refusalRule{
	{
		id:      "rm-critical-root",
		pattern: regexp.MustCompile(`rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*|--recursive|--force)\S*\s+(/|/boot|/etc|/bin|/sbin|/lib|/usr|/var|~)(\s|$)`),
		message: "removing critical system directories is not allowed",
	},
	{
		id:      "disk-format",
		pattern: regexp.MustCompile(`(mkfs|fdisk|dd|shred)\s+.*(/dev/sd[a-z]|/dev/nvme\d+)`),
		message: "disk formatting operations are not allowed",
	},
	{
		id:      "system-power",
		pattern: regexp.MustCompile(`(^|[;&|]\s*)(shutdown|reboot|halt|poweroff|init\s+0|init\s+6)(\s|$)`),
		message: "system power commands are not allowed",
	},
	{
		id:      "chmod-777-recursive",
		pattern: regexp.MustCompile(`chmod\s+(-[a-zA-Z]*R[a-zA-Z]*|--recursive)\s+777`),
		message: "setting recursive 777 permissions is not allowed",
	},
	{
		id:      "network-down",
		pattern: regexp.MustCompile(`(ifconfig|ip)\s+\S+\s+down`),
		message: "disabling network interfaces is not allowed",
	},
	{
		id:      "overwrite-system-file",
		pattern: regexp.MustCompile(`>\s*(/etc/passwd|/etc/shadow|/etc/sudoers)(\s|$)`),
		message: "writing directly to critical system files is not allowed",
	},
	{
		id:      "hidden-rm",
		pattern: regexp.MustCompile(`;\s*rm\s+`),
		message: "hidden deletion commands are not allowed",
	},
	{
		id:      "download-pipe-shell",
		pattern: regexp.MustCompile(`(curl|wget).*\|\s*(bash|sh)(\s|$)`),
		message: "downloading and executing scripts is not allowed",
	},
	{
		id:      "disk-fill",
		pattern: regexp.MustCompile(`(dd|fallocate)\s+.*if=/dev/zero`),
		message: "creating large files that may fill disk space is not allowed",
	},
	{
		id:      "loop-rm",
		pattern: regexp.MustCompile(`for\s+\S+\s+in\s+.*;.*rm\s+`),
		message: "shell loops with file deletion are not allowed",
	},
}

// privilegeRule flags commands that require elevated privileges: either a
// leading privilege-escalation command, or mutation of a path under a
// system directory.
var privilegeRules = []*regexp.Regexp{
	regexp.MustCompile(`^\s*sudo\s+`),
	regexp.MustCompile(`^\s*pkexec\s+`),
	regexp.MustCompile(`^\s*su\s+(-|--|-c|\w+)\s+`),
	regexp.MustCompile(`(chmod|chown|chgrp)\s+.*(/usr/|/etc/|/bin/|/sbin/|/lib/|/var/)`),
	regexp.MustCompile(`(touch|rm|mv|cp)\s+.*(/usr/|/etc/|/bin/|/sbin/|/lib/|/var/)`),
	regexp.MustCompile(`>\s*(/usr/|/etc/|/bin/|/sbin/|/lib/|/var/)`),
}

func matchRefusal(command string) (*refusalRule, bool) {
	for i := range refusalRules {
		if refusalRules[i].pattern.MatchString(command) {
			return &refusalRules[i], true
		}
	}
	return nil, false
}

func requiresPrivilege(command string) bool {
	for _, re := range privilegeRules {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// readOnlyCommands are introspection commands that never mutate state,
// scoring SAFE regardless of their arguments.
var readOnlyCommands = map[string]bool{
	"ls": true, "cat": true, "head": true, "tail": true, "less": true,
	"more": true, "pwd": true, "echo": true, "find": true, "grep": true,
	"which": true, "whoami": true, "ps": true, "df": true, "du": true,
	"stat": true, "file": true, "diff": true, "wc": true, "env": true,
	"date": true, "uname": true, "id": true,
}

// gitReadOnlySubcommands are git invocations that never mutate the working
// tree or history.
var gitReadOnlySubcommands = map[string]bool{
	"status": true, "log": true, "diff": true, "show": true, "branch": true,
	"remote": true, "fetch": true, "blame": true, "describe": true,
}

// gitMutatingSubcommands mirror the teacher's DestructiveCommands entries
// for git: checkout, hard reset, and forced clean can discard uncommitted
// work.
var gitMutatingSubcommands = map[string]bool{
	"checkout": true, "reset": true, "clean": true, "rebase": true,
}

// packageInstallCommands mark HIGH-risk package/system-configuration
// mutation, per §4.1 "Installing packages, modifying system configuration".
var packageInstallCommands = map[string]bool{
	"apt": true, "apt-get": true, "yum": true, "dnf": true, "brew": true,
	"pip": true, "pip3": true, "npm": true, "yarn": true, "gem": true,
	"systemctl": true, "service": true,
}

// massDeletionCommands mark CRITICAL risk: mass deletion, disk operations,
// irreversible system changes not already caught by the refusal table.
var massDeletionCommands = map[string]bool{
	"dd": true, "mkfs": true, "fdisk": true, "shred": true, "format": true,
}
