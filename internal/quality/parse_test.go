package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const swiftlintSummary = `+-----------------+--------+-------------+--------+----------+--------+------------------+-----------------+
| rule identifier | opt-in | correctable | custom | warnings | errors | total violations | number of files |
+-----------------+--------+-------------+--------+----------+--------+------------------+-----------------+
| line_length     | no     | no          | no     | 3        | 1      | 4                | 2               |
+-----------------+--------+-------------+--------+----------+--------+------------------+-----------------+
| Total           |        |             |        | 3        | 1      | 4                | 2               |
+-----------------+--------+-------------+--------+----------+--------+------------------+-----------------+
`

func TestParseSwiftLintSummary(t *testing.T) {
	errs, warnings, ok := ParseSwiftLintSummary(swiftlintSummary)
	assert.True(t, ok)
	assert.Equal(t, 1, errs)
	assert.Equal(t, 3, warnings)

	_, _, ok = ParseSwiftLintSummary("Linting Swift files in current working directory\nDone linting!")
	assert.False(t, ok)
}

func TestCountSwiftLintViolations(t *testing.T) {
	out := `/src/A.swift:3:1: warning: Line Length Violation
/src/A.swift:9:5: error: Force Cast Violation
/src/B.swift:1:1: warning: Trailing Whitespace Violation
Done linting! Found 3 violations, 1 serious in 2 files.`
	errs, warnings := CountSwiftLintViolations(out)
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warnings)
}

func TestCountKtlint(t *testing.T) {
	out := "> Task :app:ktlintMainSourceSetCheck FAILED\n" +
		"  ✗ Main.kt:3:1 Unexpected blank line(s)\n" +
		"  ✗ Main.kt:9:12 Missing spacing\n" +
		"BUILD FAILED in 2s\n"
	assert.Equal(t, 2, CountKtlint(out))
	assert.Equal(t, 0, CountKtlint("BUILD SUCCESSFUL"))
}

func TestParseDetekt(t *testing.T) {
	assert.Equal(t, 14, ParseDetekt("Overall debt: 1h 10min\n14 weighted issues.\n"))
	assert.Equal(t, 0, ParseDetekt("BUILD SUCCESSFUL"))
}

func TestParseSwiftFormat(t *testing.T) {
	out := "Running SwiftFormat...\n(dryrun mode - no files will be changed)\n5/40 files would have been formatted.\n"
	assert.Equal(t, 5, ParseSwiftFormat(out))
	assert.Equal(t, 0, ParseSwiftFormat("Running SwiftFormat..."))
}
