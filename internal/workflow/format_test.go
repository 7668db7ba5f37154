package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatusLine(t *testing.T) {
	assert.Equal(t, "DEVELOPING|✅0|commit", FormatStatusLine(PhaseDeveloping, 0, "commit"))
	assert.Equal(t, "PR_OPEN|❌4|fix", FormatStatusLine(PhasePROpen, 4, "fix"))
}

func TestFormatCheck(t *testing.T) {
	assert.Equal(t, "✅", FormatCheck(0))
	assert.Equal(t, "❌12", FormatCheck(12))
}

func TestFormatChangeLine(t *testing.T) {
	a := ClassifyChange(codeStats(142, 6), true, PlatformIOS)
	assert.Equal(t, "✅should_build|142L|6F|Large code changes (142 lines, 6 files)", FormatChangeLine(a))

	none := ClassifyChange(ChangeStats{}, false, PlatformIOS)
	assert.Equal(t, "⏸️skip|0L|0F|No changes detected", FormatChangeLine(none))
}

func TestFormatChangeFull(t *testing.T) {
	a := ChangeAnalysis{
		Recommendation: RecommendShouldBuild,
		Reason:         "Podfile changed (dependencies update)",
		Stats: ChangeStats{
			TotalLines:        50,
			LinesAdded:        40,
			LinesDeleted:      10,
			FilesChanged:      5,
			SwiftFiles:        3,
			DependencyChanged: true,
			DocFiles:          1,
			TotalCodeFiles:    4,
			TotalNonCodeFiles: 1,
		},
	}
	want := "50L(+40-10)|5F\n" +
		"Swift:3|deps:changed\n" +
		"non-code:1\n" +
		"✅should_build|Podfile changed (dependencies update)"
	assert.Equal(t, want, FormatChangeFull(a))

	bare := ChangeAnalysis{Recommendation: RecommendMaybe, Reason: "r"}
	assert.Equal(t, "0L(+0-0)|0F\n⚠️maybe|r", FormatChangeFull(bare))
}
