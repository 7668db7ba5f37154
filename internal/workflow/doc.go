// Package workflow classifies repository snapshots into workflow phases and
// change-significance recommendations.
//
// Everything in this package is a pure function of its input. Collectors in
// other packages gather a GitStatus or ChangeStats snapshot (possibly stale,
// served from a TTL cache) and hand it in; the classifiers never query git,
// gh or the filesystem themselves.
//
// # Phases
//
// ClassifyPhase walks an ordered rule table (see PhaseRules) and returns the
// first matching phase. Master/main, Git-Flow work branches and everything
// else each have their own slice of the table, and each slice ends with a
// catch-all rule, so every snapshot maps to exactly one phase.
//
// # Changes
//
// ClassifyChange recommends whether a pushed diff deserves a CI build:
//
//	analysis := workflow.ClassifyChange(stats, hasDiff, workflow.PlatformIOS)
//	fmt.Println(workflow.FormatChangeLine(analysis))
//	// ✅should_build|142L|6F|Large code changes (142 lines, 6 files)
//
// # Next actions
//
// NextAction and NextCommand turn a phase, the lint error count and optional
// pull request state into a short action word or a full shell suggestion.
package workflow
