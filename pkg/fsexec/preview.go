package fsexec

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview renders a unified-style +/- diff between a file's current
// on-disk content (if any) and the content a write_file or create_file
// step would leave behind, for display in a confirmation prompt.
func Preview(path, newContent string) string {
	old, err := os.ReadFile(path)
	oldContent := ""
	if err == nil {
		oldContent = string(old)
	}
	if oldContent == newContent {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var additions, deletions int
	var out strings.Builder
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				additions++
				fmt.Fprintf(&out, "+ %s\n", line)
			case diffmatchpatch.DiffDelete:
				deletions++
				fmt.Fprintf(&out, "- %s\n", line)
			default:
				fmt.Fprintf(&out, "  %s\n", line)
			}
		}
	}

	return fmt.Sprintf("%s (+%d/-%d)\n%s", path, additions, deletions, out.String())
}
