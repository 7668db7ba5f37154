package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/cache"
	"github.com/fyrsmithlabs/devflow/internal/github"
	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/quality"
	"github.com/fyrsmithlabs/devflow/internal/release"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// Format selects a rendering for tools that offer more than the compact line.
type Format string

const (
	FormatCompact Format = "compact"
	FormatJSON    Format = "json"
	FormatFull    Format = "full"
)

// ErrUnknownFormat is returned for a format the tool does not offer.
var ErrUnknownFormat = errors.New("unknown format")

// ErrDraftUnsupported is returned by Ready when no DraftSetter is configured.
var ErrDraftUnsupported = errors.New("draft toggling is not configured")

// parseFormat maps "" to compact and rejects anything not in allowed.
func parseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(s)
	if s == "" || f == FormatCompact {
		return FormatCompact, nil
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	names := []string{string(FormatCompact)}
	for _, a := range allowed {
		names = append(names, string(a))
	}
	return "", fmt.Errorf("%w %q (use %s)", ErrUnknownFormat, s, strings.Join(names, ", "))
}

func indentJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(b), nil
}

// StatusLine renders "<PHASE>|<✅|❌><errors>|<next>".
func (s *Service) StatusLine(ctx context.Context) string {
	ctx, span := tracer.Start(ctx, "status.line")
	defer span.End()

	phase, _ := s.Phase(ctx)
	errs := s.Lint(ctx).Errors
	return workflow.FormatStatusLine(phase, errs, workflow.NextAction(phase, errs, s.prInfo(ctx, phase)))
}

// Flow renders the structured status line
// "name(TYPE)|branch|taskId|PHASE|errors|warnings" followed, when a pull
// request is open, by "|OPEN|<DRAFT|READY>|builds:<OFF|ON>|<icon><LABEL>".
// verbose appends a guidance line for phases that have one.
func (s *Service) Flow(ctx context.Context, verbose bool) string {
	ctx, span := tracer.Start(ctx, "status.flow")
	defer span.End()

	info, custom := s.Project(ctx)
	phase, st := s.Phase(ctx)
	q := s.Quality(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)|%s|%s|%s|%d|%d",
		info.Name, strings.ToUpper(string(info.Type)), st.Branch, st.TaskID, phase, q.Errors, q.Warnings)

	if st.PRState == workflow.PRStateOpen {
		pr, _ := s.pullRequest(ctx)
		a := s.Analyze(ctx, "")
		draft, builds := "READY", "ON"
		if pr.IsDraft {
			draft, builds = "DRAFT", "OFF"
		}
		fmt.Fprintf(&b, "|%s|%s|builds:%s|%s%s", st.PRState, draft, builds, a.Recommendation.Icon(), a.Recommendation.Label())
	}

	if verbose {
		codeChanges := false
		if phase == workflow.PhaseDeveloping {
			codeChanges = quality.HasCodeChanges(s.dirtyFiles(ctx), info.Platform())
		}
		if guide := quality.PhaseGuidance(phase, info, custom, codeChanges); guide != "" {
			b.WriteByte('\n')
			b.WriteString(guide)
		}
	}
	return b.String()
}

// Fix returns the project's fix commands joined by " && ".
func (s *Service) Fix(ctx context.Context) string {
	info, custom := s.Project(ctx)
	return strings.Join(quality.FixCommands(info, custom), " && ")
}

// Check renders "✅" or "❌<errors>" from the linter.
func (s *Service) Check(ctx context.Context) string {
	return workflow.FormatCheck(s.Lint(ctx).Errors)
}

// Next returns the suggested shell command for the current phase.
func (s *Service) Next(ctx context.Context) string {
	ctx, span := tracer.Start(ctx, "status.next")
	defer span.End()

	info, custom := s.Project(ctx)
	phase, _ := s.Phase(ctx)
	errs := s.Lint(ctx).Errors
	var fix []string
	if errs > 0 {
		fix = quality.FixCommands(info, custom)
	}
	return workflow.NextCommand(phase, errs, s.prInfo(ctx, phase), fix)
}

// Changes renders the change analysis against base in compact, json or full
// form.
func (s *Service) Changes(ctx context.Context, base, format string) (string, error) {
	f, err := parseFormat(format, FormatJSON, FormatFull)
	if err != nil {
		return "", err
	}
	a := s.Analyze(ctx, base)
	switch f {
	case FormatJSON:
		return indentJSON(a)
	case FormatFull:
		return workflow.FormatChangeFull(a), nil
	default:
		return workflow.FormatChangeLine(a), nil
	}
}

// Ready reports or changes the pull request's draft state. action is
// "check" (or empty), "yes" to mark it ready, or "draft".
func (s *Service) Ready(ctx context.Context, action string) (string, error) {
	ctx, span := tracer.Start(ctx, "status.ready")
	defer span.End()

	pr, ok := s.pullRequest(ctx)
	if !ok {
		return "❌ No PR|Create PR first: gh pr create", nil
	}

	switch action {
	case "", "check":
		status, builds := "🟢READY", "builds:ON"
		if pr.IsDraft {
			status, builds = "🟡DRAFT", "builds:OFF"
		}
		return fmt.Sprintf("PR#%d|%s|%s|checks:%s", pr.Number, status, builds, pr.Checks.Icon()), nil
	case "yes", "draft":
	default:
		return fmt.Sprintf("❌ Unknown action: %s. Use: check, yes, draft", action), nil
	}

	if s.drafts == nil {
		return "", ErrDraftUnsupported
	}
	draft := action == "draft"

	s.cache.Invalidate("pr:")
	res, err := github.SetReady(ctx, s.prs, s.drafts, draft)
	s.cache.Invalidate("pr:")
	if err != nil {
		return "", err
	}
	if res.Cause != nil {
		s.logger.Warn(ctx, "changing draft state failed", zap.Bool("draft", draft), zap.Error(res.Cause))
	}
	if !res.Success {
		return "❌ " + res.Message, nil
	}
	if draft {
		return fmt.Sprintf("✅ PR#%d DRAFT|builds:OFF|Safe to push", pr.Number), nil
	}
	return fmt.Sprintf("✅ PR#%d READY|builds:ON|Next push triggers build", pr.Number), nil
}

// VersionInfo returns the project version and its successors.
func (s *Service) VersionInfo(ctx context.Context) release.Info {
	info, _ := s.Project(ctx)
	v, _ := cache.Load(ctx, s.cache, keyVersion, s.ttl.Git, func(ctx context.Context) (release.Info, error) {
		v, err := s.versions.Version(ctx, info)
		if err != nil {
			s.logger.Warn(ctx, "version lookup incomplete", zap.Error(err))
		}
		return v, nil
	})
	return v
}

// Version renders the version line or its JSON form.
func (s *Service) Version(ctx context.Context, format string) (string, error) {
	f, err := parseFormat(format, FormatJSON)
	if err != nil {
		return "", err
	}
	v := s.VersionInfo(ctx)
	if f == FormatJSON {
		return indentJSON(v)
	}
	return v.Line(), nil
}

// CommitSummary groups from..to by conventional commit type. Empty ends
// default as in release.Commits.
func (s *Service) CommitSummary(ctx context.Context, from, to string) release.Summary {
	sum, err := cache.Load(ctx, s.cache, keyCommitsPre+from+".."+to, s.ttl.Git, func(ctx context.Context) (release.Summary, error) {
		return release.Commits(ctx, s.git, from, to)
	})
	if err != nil {
		s.logger.Warn(ctx, "reading commits failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		if to == "" {
			to = "HEAD"
		}
		return release.Summary{ByType: map[string][]release.CommitInfo{}, Range: release.Range{From: from, To: to}}
	}
	return sum
}

// Commits renders the commit summary compact, as JSON, or as release notes
// (full).
func (s *Service) Commits(ctx context.Context, from, to, format string) (string, error) {
	f, err := parseFormat(format, FormatJSON, FormatFull)
	if err != nil {
		return "", err
	}
	sum := s.CommitSummary(ctx, from, to)
	switch f {
	case FormatJSON:
		return indentJSON(sum)
	case FormatFull:
		return sum.ReleaseNotes(), nil
	default:
		return sum.Line(), nil
	}
}

// Config renders the effective platform commands. Projects with none get a
// fixed hint line in every format.
func (s *Service) Config(ctx context.Context, format string) (string, error) {
	f, err := parseFormat(format, FormatJSON)
	if err != nil {
		return "", err
	}
	info, custom := s.Project(ctx)
	cfg, ok := quality.ResolveConfig(info, custom)
	if !ok {
		return quality.UnknownConfigLine, nil
	}
	if f == FormatJSON {
		return indentJSON(cfg)
	}
	return cfg.Line(), nil
}

// ProjectConfig is the dev://config resource body.
type ProjectConfig struct {
	Project project.Info    `json:"project"`
	Tools   map[string]bool `json:"tools"`
}

// ProjectJSON renders the detected project and its installed tools.
func (s *Service) ProjectJSON(ctx context.Context) (string, error) {
	info, _ := s.Project(ctx)
	tools := map[string]bool{}
	if s.tools != nil {
		tools = project.AvailableTools(info, s.tools)
	}
	return indentJSON(ProjectConfig{Project: info, Tools: tools})
}

// Snapshot is the full state behind the status line.
type Snapshot struct {
	Project project.Info       `json:"project"`
	Git     workflow.GitStatus `json:"git"`
	Phase   workflow.Phase     `json:"phase"`
	Quality quality.Result     `json:"quality"`
	Next    string             `json:"next"`
}

// Snapshot collects project, git and lint state with the next action.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	info, _ := s.Project(ctx)
	phase, st := s.Phase(ctx)
	q := s.Lint(ctx)
	return Snapshot{
		Project: info,
		Git:     st,
		Phase:   phase,
		Quality: q,
		Next:    workflow.NextAction(phase, q.Errors, s.prInfo(ctx, phase)),
	}
}
