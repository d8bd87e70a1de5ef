package executor

import "strings"

// interactiveCommands are command names known to take over the controlling
// terminal. Angela never spawns these as children; it recommends the user
// run them directly.
var interactiveCommands = map[string]bool{
	"vim": true, "vi": true, "nano": true, "emacs": true, "pico": true,
	"less": true, "more": true,
	"top": true, "htop": true, "btop": true, "iotop": true, "iftop": true,
	"nmon": true, "glances": true, "atop": true,
	"ping": true, "traceroute": true, "mtr": true, "tcpdump": true,
	"wireshark": true, "tshark": true, "ngrep": true,
	"tail": true, "watch": true, "journalctl": true, "dmesg": true,
	"ssh": true, "telnet": true, "nc": true, "netcat": true,
	"mysql": true, "psql": true, "sqlite3": true, "mongo": true,
	"redis-cli": true, "gdb": true, "lldb": true, "pdb": true,
	"tmux": true, "screen": true,
}

// IsInteractive reports whether command is terminal-interactive, and the
// base command name it matched on. It implements the contextual variants
// named in §4.3: ping without -c, tail -f, journalctl -f, and watch in any
// form.
func IsInteractive(command string) (bool, string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, ""
	}
	base := fields[0]

	switch base {
	case "ping":
		return !strings.Contains(command, "-c"), base
	case "tail", "journalctl":
		return strings.Contains(command, "-f"), base
	case "watch":
		return true, base
	}

	if interactiveCommands[base] {
		return true, base
	}

	return false, base
}
