package quality

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	swiftlintTotal   = regexp.MustCompile(`Total[^\d]*(\d+)[^\d]*(\d+)`)
	detektIssues     = regexp.MustCompile(`(\d+) weighted issues`)
	swiftformatCount = regexp.MustCompile(`(?m)^(\d+)`)
)

// ParseSwiftLintSummary reads the Total row of `swiftlint --reporter summary`,
// whose first two counts are warnings then errors. ok is false when the
// output has no Total row.
func ParseSwiftLintSummary(out string) (errs, warnings int, ok bool) {
	m := swiftlintTotal.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, false
	}
	warnings, _ = strconv.Atoi(m[1])
	errs, _ = strconv.Atoi(m[2])
	return errs, warnings, true
}

// CountSwiftLintViolations counts lines of the default reporter that carry
// "error:" or "warning:".
func CountSwiftLintViolations(out string) (errs, warnings int) {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "error:") {
			errs++
		}
		if strings.Contains(line, "warning:") {
			warnings++
		}
	}
	return errs, warnings
}

// CountKtlint counts the lines ktlint marks with ✗.
func CountKtlint(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "✗") {
			n++
		}
	}
	return n
}

// ParseDetekt returns N from the first "N weighted issues", or 0.
func ParseDetekt(out string) int {
	m := detektIssues.FindStringSubmatch(out)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// ParseSwiftFormat returns the first number that starts a line of
// `swiftformat --dryrun` output, or 0.
func ParseSwiftFormat(out string) int {
	m := swiftformatCount.FindStringSubmatch(out)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
