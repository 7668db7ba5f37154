package workflow

import (
	"fmt"
	"strings"
)

// FormatStatusLine renders the dev_status line "<PHASE>|<✅|❌><errors>|<next>".
func FormatStatusLine(phase Phase, lintErrors int, next string) string {
	mark := "✅"
	if lintErrors > 0 {
		mark = "❌"
	}
	return fmt.Sprintf("%s|%s%d|%s", phase, mark, lintErrors, next)
}

// FormatCheck renders the dev_check result: "✅" or "❌<errors>".
func FormatCheck(lintErrors int) string {
	if lintErrors == 0 {
		return "✅"
	}
	return fmt.Sprintf("❌%d", lintErrors)
}

// FormatChangeLine renders the compact form
// "<icon><recommendation>|<lines>L|<files>F|<reason>".
func FormatChangeLine(a ChangeAnalysis) string {
	return fmt.Sprintf("%s%s|%dL|%dF|%s",
		a.Recommendation.Icon(), a.Recommendation,
		a.Stats.TotalLines, a.Stats.TotalCodeFiles, a.Reason)
}

// FormatChangeFull renders the multi-line breakdown with only the non-zero
// file categories.
func FormatChangeFull(a ChangeAnalysis) string {
	s := a.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "%dL(+%d-%d)|%dF\n", s.TotalLines, s.LinesAdded, s.LinesDeleted, s.FilesChanged)

	var kinds []string
	for _, c := range []struct {
		label string
		n     int
	}{
		{"Swift", s.SwiftFiles},
		{"ObjC", s.ObjCFiles},
		{"Kt", s.KotlinFiles},
		{"Java", s.JavaFiles},
		{"UI", s.UIFiles},
	} {
		if c.n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s:%d", c.label, c.n))
		}
	}
	if s.DependencyChanged {
		kinds = append(kinds, "deps:changed")
	}
	if s.ProjectConfigChanged {
		kinds = append(kinds, "config:changed")
	}
	if len(kinds) > 0 {
		b.WriteString(strings.Join(kinds, "|"))
		b.WriteByte('\n')
	}
	if s.TotalNonCodeFiles > 0 {
		fmt.Fprintf(&b, "non-code:%d\n", s.TotalNonCodeFiles)
	}
	fmt.Fprintf(&b, "%s%s|%s", a.Recommendation.Icon(), a.Recommendation, a.Reason)
	return b.String()
}
