// Package release derives the project version and summarizes the commits
// that make up the next release.
package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/project"
	"github.com/fyrsmithlabs/devflow/internal/runner"
)

// Source names where the current version was read from.
type Source string

const (
	SourceXcodebuild Source = "xcodebuild"
	SourceGradle     Source = "gradle"
	SourceTag        Source = "tag"
	SourceUnknown    Source = "unknown"
)

// Info is the current version and its possible successors.
type Info struct {
	Current   string `json:"current"`
	LatestTag string `json:"latestTag"`
	NextMajor string `json:"nextMajor"`
	NextMinor string `json:"nextMinor"`
	NextPatch string `json:"nextPatch"`
	Source    Source `json:"source"`
}

// Line renders "v<cur>|tag:<tag|none>|next:<minor>(minor),<patch>(patch)|src:<source>".
func (i Info) Line() string {
	tag := i.LatestTag
	if tag == "" {
		tag = "none"
	}
	return fmt.Sprintf("v%s|tag:%s|next:%s(minor),%s(patch)|src:%s",
		i.Current, tag, i.NextMinor, i.NextPatch, i.Source)
}

var (
	semverPrefix = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)`)
	versionName  = regexp.MustCompile(`versionName\s*[=:]\s*["']([^"']+)["']`)
)

// NextVersions bumps the leading major.minor.patch of current. Suffixes such
// as pre-release tags are dropped. ok is false when current does not start
// with three numeric parts.
func NextVersions(current string) (major, minor, patch string, ok bool) {
	m := semverPrefix.FindStringSubmatch(current)
	if m == nil {
		return "", "", "", false
	}
	v, err := version.NewVersion(m[1])
	if err != nil {
		return "", "", "", false
	}
	s := v.Segments()
	return fmt.Sprintf("%d.0.0", s[0]+1),
		fmt.Sprintf("%d.%d.0", s[0], s[1]+1),
		fmt.Sprintf("%d.%d.%d", s[0], s[1], s[2]+1),
		true
}

// TagSource finds the tag nearest to HEAD.
type TagSource interface {
	LatestTag(ctx context.Context) (string, error)
}

// Versioner reads the project version.
type Versioner struct {
	runner runner.Runner
	tags   TagSource
	logger *logging.Logger
}

// NewVersioner creates a Versioner. A nil logger discards output.
func NewVersioner(r runner.Runner, tags TagSource, logger *logging.Logger) *Versioner {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Versioner{runner: r, tags: tags, logger: logger.Named("release")}
}

// Version reads MARKETING_VERSION through xcodebuild on iOS or versionName
// from app/build.gradle(.kts) on Android, falling back to the latest tag
// without its "v" prefix. Current is "unknown" when nothing is found.
//
// A failed tag lookup is returned together with the best Info available.
func (v *Versioner) Version(ctx context.Context, info project.Info) (Info, error) {
	ctx, span := tracer.Start(ctx, "release.version")
	defer span.End()

	out := Info{Source: SourceUnknown}
	switch info.Type {
	case project.TypeIOS:
		if cur := v.marketingVersion(ctx, info.Path); cur != "" {
			out.Current, out.Source = cur, SourceXcodebuild
		}
	case project.TypeAndroid:
		if cur := gradleVersionName(info.Path); cur != "" {
			out.Current, out.Source = cur, SourceGradle
		}
	}

	latest, err := v.tags.LatestTag(ctx)
	if err != nil {
		err = fmt.Errorf("reading latest tag: %w", err)
	}
	out.LatestTag = latest
	if out.Current == "" && latest != "" {
		out.Current, out.Source = strings.TrimPrefix(latest, "v"), SourceTag
	}

	out.NextMajor, out.NextMinor, out.NextPatch, _ = NextVersions(out.Current)
	if out.Current == "" {
		out.Current = "unknown"
	}
	return out, err
}

func (v *Versioner) marketingVersion(ctx context.Context, dir string) string {
	flag, name := project.XcodeContainer(dir)
	if flag == "" {
		return ""
	}
	res, err := v.runner.Run(ctx, dir, "xcodebuild", flag, name, "-showBuildSettings")
	if err != nil {
		v.logger.Debug(ctx, "xcodebuild failed", zap.Error(err))
		return ""
	}
	return parseMarketingVersion(res.Stdout)
}

// parseMarketingVersion returns the value of the first MARKETING_VERSION
// build setting line.
func parseMarketingVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "MARKETING_VERSION") {
			continue
		}
		if f := strings.Fields(line); len(f) >= 3 {
			return f[2]
		}
		return ""
	}
	return ""
}

func gradleVersionName(dir string) string {
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		content, err := os.ReadFile(filepath.Join(dir, "app", name))
		if err != nil {
			continue
		}
		if m := versionName.FindSubmatch(content); m != nil {
			return string(m[1])
		}
	}
	return ""
}
