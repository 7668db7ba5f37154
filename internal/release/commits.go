package release

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/fyrsmithlabs/devflow/internal/gitstate"
)

var tracer = otel.Tracer("devflow/release")

// TypeOther groups commits that do not follow the conventional format.
const TypeOther = "other"

// noteTypes is the release-notes section order. Types outside it are
// counted but not listed.
var noteTypes = []struct {
	name  string
	emoji string
}{
	{"feat", "✨"},
	{"fix", "🐛"},
	{"perf", "⚡"},
	{"refactor", "♻️"},
	{"docs", "📚"},
	{"style", "💄"},
	{"test", "✅"},
	{"chore", "🔧"},
	{TypeOther, "📝"},
}

// maxInline bounds the subjects listed per type in release notes.
const maxInline = 5

var conventional = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?:\s*(.+)$`)

// CommitInfo is a parsed conventional commit.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Type    string `json:"type"`
	Scope   string `json:"scope,omitempty"`
	Subject string `json:"subject"`
	Raw     string `json:"raw"`
}

// ParseCommit splits "type(scope): subject". Anything else has type other
// and the whole message as subject.
func ParseCommit(hash, message string) CommitInfo {
	if m := conventional.FindStringSubmatch(message); m != nil {
		return CommitInfo{Hash: hash, Type: m[1], Scope: m[2], Subject: m[3], Raw: message}
	}
	return CommitInfo{Hash: hash, Type: TypeOther, Subject: message, Raw: message}
}

// Range is the from..to revision range of a summary.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Summary groups a commit range by type.
type Summary struct {
	Total  int                     `json:"total"`
	ByType map[string][]CommitInfo `json:"byType"`
	Range  Range                   `json:"range"`
	// Types lists ByType's keys in order of first appearance.
	Types []string `json:"-"`
}

// Summarize parses commits, newest first, into a Summary.
func Summarize(commits []gitstate.Commit, from, to string) Summary {
	s := Summary{
		Total:  len(commits),
		ByType: make(map[string][]CommitInfo),
		Range:  Range{From: from, To: to},
	}
	for _, c := range commits {
		info := ParseCommit(c.Hash, c.Subject)
		if _, seen := s.ByType[info.Type]; !seen {
			s.Types = append(s.Types, info.Type)
		}
		s.ByType[info.Type] = append(s.ByType[info.Type], info)
	}
	return s
}

// Line renders "<n> commits|<from>..<to>|<type>:<count>,...".
func (s Summary) Line() string {
	counts := make([]string, 0, len(s.Types))
	for _, t := range s.Types {
		counts = append(counts, fmt.Sprintf("%s:%d", t, len(s.ByType[t])))
	}
	return fmt.Sprintf("%d commits|%s..%s|%s", s.Total, s.Range.From, s.Range.To, strings.Join(counts, ","))
}

// ReleaseNotes renders a header line with abbreviated range ends and one
// line per non-empty type in release order, listing up to five
// "scope/subject" entries and a "+N" overflow count.
func (s Summary) ReleaseNotes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d commits (%s..%s)\n", s.Total, short(s.Range.From), short(s.Range.To))
	for _, t := range noteTypes {
		commits := s.ByType[t.name]
		if len(commits) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s%s(%d):", t.emoji, t.name, len(commits))
		shown := commits[:min(len(commits), maxInline)]
		entries := make([]string, 0, len(shown))
		for _, c := range shown {
			if c.Scope != "" {
				entries = append(entries, c.Scope+"/"+c.Subject)
			} else {
				entries = append(entries, c.Subject)
			}
		}
		b.WriteString(strings.Join(entries, ";"))
		if extra := len(commits) - maxInline; extra > 0 {
			fmt.Fprintf(&b, ";+%d", extra)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func short(ref string) string {
	if len(ref) > 7 {
		return ref[:7]
	}
	return ref
}

// History reads commit ranges.
type History interface {
	DefaultFrom(ctx context.Context) (string, error)
	Log(ctx context.Context, from, to string) ([]gitstate.Commit, error)
}

// Commits summarizes from..to. An empty to is HEAD; an empty from is the
// tag before the latest tag, the latest tag, or the root commit, whichever
// exists first. On error the returned Summary is empty but carries the
// range.
func Commits(ctx context.Context, h History, from, to string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "release.commits")
	defer span.End()

	if to == "" {
		to = "HEAD"
	}
	empty := Summary{ByType: map[string][]CommitInfo{}, Range: Range{From: from, To: to}}
	if from == "" {
		var err error
		from, err = h.DefaultFrom(ctx)
		if err != nil {
			return empty, fmt.Errorf("finding range start: %w", err)
		}
		empty.Range.From = from
	}

	commits, err := h.Log(ctx, from, to)
	if err != nil {
		return empty, fmt.Errorf("reading %s..%s: %w", from, to, err)
	}
	return Summarize(commits, from, to), nil
}
