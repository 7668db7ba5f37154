package quality

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/fyrsmithlabs/devflow/internal/project"
)

// Config sources reported by PlatformConfig.
const (
	SourceAuto     = "auto-detect"
	SourceMakefile = "Makefile"
)

// UnknownConfigLine is the dev_config answer for projects with no platform
// defaults and no overrides.
const UnknownConfigLine = "unknown|no platform config|Create .dev-flow.json or Makefile with fix/check targets"

var (
	iosScopes     = []string{"auth", "network", "ui", "home", "search", "listing", "map", "account"}
	androidScopes = []string{"app", "core", "feature", "data", "domain", "network", "ui"}
)

// PlatformConfig is the effective set of project commands.
type PlatformConfig struct {
	Platform    string   `json:"platform"`
	LintFix     string   `json:"lintFix"`
	LintCheck   string   `json:"lintCheck"`
	FormatFix   string   `json:"formatFix,omitempty"`
	FormatCheck string   `json:"formatCheck,omitempty"`
	BuildCmd    string   `json:"buildCmd"`
	TestCmd     string   `json:"testCmd,omitempty"`
	VerifyCmd   string   `json:"verifyCmd,omitempty"`
	VersionCmd  string   `json:"versionCmd,omitempty"`
	Scopes      []string `json:"scopes"`
	Source      string   `json:"source"`
}

// Line renders the compact form
// "<platform>|fix:<cmd>|check:<cmd>|scopes:<a,b>|src:<custom|Makefile|auto>".
func (c PlatformConfig) Line() string {
	src := "custom"
	switch c.Source {
	case SourceAuto:
		src = "auto"
	case SourceMakefile:
		src = SourceMakefile
	}
	return fmt.Sprintf("%s|fix:%s|check:%s|scopes:%s|src:%s",
		c.Platform, c.LintFix, c.LintCheck, strings.Join(c.Scopes, ","), src)
}

// ResolveConfig picks the project's commands: custom configuration first,
// then Makefile fix/check targets, then the iOS or Android defaults. ok is
// false when none apply.
func ResolveConfig(info project.Info, custom *project.Config) (cfg PlatformConfig, ok bool) {
	if custom != nil {
		return PlatformConfig{
			Platform:  custom.Platform,
			LintFix:   custom.Commands.Fix,
			LintCheck: custom.Commands.Check,
			BuildCmd:  custom.Commands.Build,
			Scopes:    nonNil(custom.Scopes),
			Source:    custom.Source,
		}, true
	}
	if info.Type == project.TypeMakefile || project.HasMakefileTargets(info.Path) {
		return PlatformConfig{
			Platform:  "makefile",
			LintFix:   "make fix",
			LintCheck: "make check",
			BuildCmd:  "make build",
			Scopes:    []string{},
			Source:    SourceMakefile,
		}, true
	}
	switch info.Type {
	case project.TypeIOS:
		return iosConfig(info), true
	case project.TypeAndroid:
		return androidConfig(info), true
	default:
		return PlatformConfig{}, false
	}
}

func iosConfig(info project.Info) PlatformConfig {
	src := quote(info.SrcDir)

	versionCmd := `echo "unknown"`
	if flag, name := project.XcodeContainer(info.Path); flag != "" {
		versionCmd = fmt.Sprintf(`xcodebuild %s "%s" -showBuildSettings 2>/dev/null | grep -m1 MARKETING_VERSION | awk '{print $3}'`, flag, name)
	}

	return PlatformConfig{
		Platform:    string(project.TypeIOS),
		LintFix:     "swiftlint --fix --path " + src,
		LintCheck:   "swiftlint lint --path " + src,
		FormatFix:   "swiftformat " + src,
		FormatCheck: "swiftformat " + src + " --dryrun",
		BuildCmd:    fmt.Sprintf(`xcodebuild -workspace %s -scheme "%s QA" build`, quote(info.Name+".xcworkspace"), info.Name),
		VersionCmd:  versionCmd,
		Scopes:      iosScopes,
		Source:      SourceAuto,
	}
}

func androidConfig(info project.Info) PlatformConfig {
	g := project.Gradle(info.Path)
	return PlatformConfig{
		Platform:    string(project.TypeAndroid),
		LintFix:     g + " ktlintFormat",
		LintCheck:   g + " ktlintCheck",
		FormatFix:   g + " ktlintFormat",
		FormatCheck: g + " ktlintCheck",
		BuildCmd:    g + " assembleDebug",
		TestCmd:     g + " test --quiet",
		VerifyCmd:   g + " ktlintCheck && " + g + " assembleDebug --quiet",
		VersionCmd:  `grep -oP 'versionName "\K[^"]+' app/build.gradle`,
		Scopes:      androidScopes,
		Source:      SourceAuto,
	}
}

// FixCommands returns the commands that fix lint and format findings, in
// the same precedence as ResolveConfig. iOS runs swiftformat then
// `swiftlint --fix`. It returns nil when the project has none.
func FixCommands(info project.Info, custom *project.Config) []string {
	if custom != nil {
		return []string{custom.Commands.Fix}
	}
	if info.Type == project.TypeMakefile || project.HasMakefileTargets(info.Path) {
		return []string{"make fix"}
	}
	switch info.Type {
	case project.TypeIOS:
		return []string{"swiftformat " + quote(info.SrcDir), "swiftlint --fix"}
	case project.TypeAndroid:
		return []string{project.Gradle(info.Path) + " ktlintFormat"}
	default:
		return nil
	}
}

// quote makes s safe to paste into a shell command line. Plain words are
// returned unchanged.
func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Only strings holding NUL bytes cannot be quoted.
		return s
	}
	return q
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
