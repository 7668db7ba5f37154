package workflow

import "fmt"

// Recommendation is the build verdict for a set of pushed changes.
type Recommendation string

const (
	RecommendShouldBuild Recommendation = "should_build"
	RecommendSkip        Recommendation = "skip"
	RecommendMaybe       Recommendation = "maybe"
)

// Icon returns the status-line glyph for the recommendation.
func (r Recommendation) Icon() string {
	switch r {
	case RecommendShouldBuild:
		return "✅"
	case RecommendSkip:
		return "⏸️"
	default:
		return "⚠️"
	}
}

// Label returns the upper-case short form used in dev_flow lines.
func (r Recommendation) Label() string {
	switch r {
	case RecommendShouldBuild:
		return "BUILD"
	case RecommendSkip:
		return "SKIP"
	default:
		return "MAYBE"
	}
}

// Confidence qualifies a Recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Platform selects the platform-specific parts of change classification.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformGeneric Platform = "generic"
)

// Line thresholds for the size-based change rules.
const (
	LargeChangeLines = 100
	MinorChangeLines = 30
)

// ChangeStats summarises a diff. Platform counters are sparse: zero and false
// mean "none", never "unknown".
type ChangeStats struct {
	TotalLines           int  `json:"totalLines"`
	LinesAdded           int  `json:"linesAdded"`
	LinesDeleted         int  `json:"linesDeleted"`
	FilesChanged         int  `json:"filesChanged"`
	SwiftFiles           int  `json:"swiftFiles,omitempty"`
	ObjCFiles            int  `json:"objcFiles,omitempty"`
	KotlinFiles          int  `json:"kotlinFiles,omitempty"`
	JavaFiles            int  `json:"javaFiles,omitempty"`
	UIFiles              int  `json:"uiFiles,omitempty"`
	DependencyChanged    bool `json:"dependencyChanged,omitempty"`
	ProjectConfigChanged bool `json:"projectConfigChanged,omitempty"`
	DocFiles             int  `json:"docFiles,omitempty"`
	ConfigFiles          int  `json:"configFiles,omitempty"`
	TotalCodeFiles       int  `json:"totalCodeFiles"`
	TotalNonCodeFiles    int  `json:"totalNonCodeFiles"`
}

// ChangeAnalysis is the result of ClassifyChange.
type ChangeAnalysis struct {
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
	Confidence     Confidence     `json:"confidence"`
	Stats          ChangeStats    `json:"stats"`
}

type changeRule struct {
	match func(ChangeStats) bool
	apply func(ChangeStats, Platform) ChangeAnalysis
}

func dependencyReason(p Platform) string {
	switch p {
	case PlatformIOS:
		return "Podfile changed (dependencies update)"
	case PlatformAndroid:
		return "Gradle changed (dependencies update)"
	default:
		return "Dependencies changed"
	}
}

var changeRules = []changeRule{
	{
		match: func(s ChangeStats) bool { return s.TotalCodeFiles == 0 },
		apply: func(s ChangeStats, _ Platform) ChangeAnalysis {
			reason := "No code files changed (only docs/config)"
			if s.DocFiles > 0 {
				reason = "Documentation-only changes"
			}
			return ChangeAnalysis{Recommendation: RecommendSkip, Reason: reason, Confidence: ConfidenceHigh}
		},
	},
	{
		match: func(s ChangeStats) bool { return s.DependencyChanged },
		apply: func(_ ChangeStats, p Platform) ChangeAnalysis {
			return ChangeAnalysis{Recommendation: RecommendShouldBuild, Reason: dependencyReason(p), Confidence: ConfidenceHigh}
		},
	},
	{
		match: func(s ChangeStats) bool { return s.ProjectConfigChanged },
		apply: func(ChangeStats, Platform) ChangeAnalysis {
			return ChangeAnalysis{Recommendation: RecommendShouldBuild, Reason: "Project configuration changed", Confidence: ConfidenceHigh}
		},
	},
	{
		match: func(s ChangeStats) bool { return s.TotalLines > LargeChangeLines },
		apply: func(s ChangeStats, _ Platform) ChangeAnalysis {
			return ChangeAnalysis{
				Recommendation: RecommendShouldBuild,
				Reason:         fmt.Sprintf("Large code changes (%d lines, %d files)", s.TotalLines, s.TotalCodeFiles),
				Confidence:     ConfidenceHigh,
			}
		},
	},
	{
		match: func(s ChangeStats) bool { return s.TotalLines < MinorChangeLines },
		apply: func(s ChangeStats, _ Platform) ChangeAnalysis {
			return ChangeAnalysis{
				Recommendation: RecommendSkip,
				Reason:         fmt.Sprintf("Minor changes (%d lines)", s.TotalLines),
				Confidence:     ConfidenceMedium,
			}
		},
	},
	{
		match: func(ChangeStats) bool { return true },
		apply: func(s ChangeStats, _ Platform) ChangeAnalysis {
			return ChangeAnalysis{
				Recommendation: RecommendMaybe,
				Reason:         fmt.Sprintf("Moderate changes (%d lines, %d files)", s.TotalLines, s.TotalCodeFiles),
				Confidence:     ConfidenceMedium,
			}
		},
	},
}

// ClassifyChange recommends whether the diff described by stats should
// trigger a build. hasDiff is false when the diff between the refs was empty.
func ClassifyChange(stats ChangeStats, hasDiff bool, platform Platform) ChangeAnalysis {
	if !hasDiff {
		return ChangeAnalysis{
			Recommendation: RecommendSkip,
			Reason:         "No changes detected",
			Confidence:     ConfidenceHigh,
			Stats:          ChangeStats{},
		}
	}
	for _, rule := range changeRules {
		if rule.match(stats) {
			analysis := rule.apply(stats, platform)
			analysis.Stats = stats
			return analysis
		}
	}
	// unreachable: the last rule matches everything
	return ChangeAnalysis{Recommendation: RecommendMaybe, Confidence: ConfidenceLow, Stats: stats}
}
