package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// Type is the detected project kind.
type Type string

const (
	TypeIOS      Type = "ios"
	TypeAndroid  Type = "android"
	TypeCustom   Type = "custom"
	TypeMakefile Type = "makefile"
	TypeUnknown  Type = "unknown"
)

// Platform maps the project type onto the change classifier's platform.
// Custom, Makefile and unknown projects are generic.
func (t Type) Platform() workflow.Platform {
	switch t {
	case TypeIOS:
		return workflow.PlatformIOS
	case TypeAndroid:
		return workflow.PlatformAndroid
	default:
		return workflow.PlatformGeneric
	}
}

// Info describes a detected project.
type Info struct {
	Type        Type     `json:"type"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	SrcDir      string   `json:"srcDir"`
	ConfigFiles []string `json:"configFiles"`
}

// Platform is shorthand for Info.Type.Platform.
func (i Info) Platform() workflow.Platform {
	return i.Type.Platform()
}

// HasLinters reports whether devflow knows how to run this project's
// linters itself.
func (i Info) HasLinters() bool {
	return i.Type == TypeIOS || i.Type == TypeAndroid
}

// Detect classifies dir from its top-level entries. Custom configuration and
// Makefiles are not considered; see Resolve.
func Detect(dir string) (Info, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Info{}, fmt.Errorf("resolving project path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return Info{}, fmt.Errorf("reading project directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	has := func(name string) bool { return slices.Contains(names, name) }
	find := func(suffix string) string {
		for _, n := range names {
			if strings.HasSuffix(n, suffix) {
				return n
			}
		}
		return ""
	}
	exists := func(rel ...string) bool {
		_, err := os.Stat(filepath.Join(append([]string{abs}, rel...)...))
		return err == nil
	}

	xcodeproj := find(".xcodeproj")
	xcworkspace := find(".xcworkspace")
	podfile := has("Podfile")
	swift := find(".swift") != "" || exists("Sources")

	if xcodeproj != "" || xcworkspace != "" || (podfile && swift) {
		name := filepath.Base(abs)
		if xcodeproj != "" {
			name = strings.TrimSuffix(xcodeproj, ".xcodeproj")
		}

		srcDir := name
		switch {
		case exists(name):
		case exists("Sources"):
			srcDir = "Sources"
		case exists("src"):
			srcDir = "src"
		}

		configFiles := []string{}
		for _, f := range []string{".swiftlint.yml", ".swiftformat"} {
			if exists(f) {
				configFiles = append(configFiles, f)
			}
		}
		if podfile {
			configFiles = append(configFiles, "Podfile")
		}

		return Info{Type: TypeIOS, Name: name, Path: abs, SrcDir: srcDir, ConfigFiles: configFiles}, nil
	}

	buildGradle := has("build.gradle") || has("build.gradle.kts")
	settingsGradle := has("settings.gradle") || has("settings.gradle.kts")
	if buildGradle || settingsGradle || exists("app", "src", "main", "AndroidManifest.xml") {
		configFiles := []string{}
		for _, f := range []string{".editorconfig", "detekt.yml"} {
			if exists(f) {
				configFiles = append(configFiles, f)
			}
		}
		if buildGradle {
			configFiles = append(configFiles, "build.gradle")
		}
		return Info{
			Type:        TypeAndroid,
			Name:        filepath.Base(abs),
			Path:        abs,
			SrcDir:      "app/src/main",
			ConfigFiles: configFiles,
		}, nil
	}

	return Info{Type: TypeUnknown, Name: filepath.Base(abs), Path: abs, SrcDir: ".", ConfigFiles: []string{}}, nil
}

// Resolve detects the project and loads its overrides. The returned Config
// is the project's valid custom configuration, or nil. Projects that are not
// recognised as ios or android become TypeCustom when a Config exists, or
// TypeMakefile when the Makefile has fix and check targets.
//
// A malformed configuration file is reported through the error alongside a
// usable Info.
func Resolve(dir string) (Info, *Config, error) {
	info, err := Detect(dir)
	if err != nil {
		return Info{}, nil, err
	}
	cfg, cfgErr := LoadConfig(info.Path)
	if info.Type == TypeUnknown {
		switch {
		case cfg != nil:
			info.Type = TypeCustom
		case HasMakefileTargets(info.Path):
			info.Type = TypeMakefile
		}
	}
	return info, cfg, cfgErr
}

// Gradle returns ./gradlew when the wrapper exists in dir, else gradle.
func Gradle(dir string) string {
	if _, err := os.Stat(filepath.Join(dir, "gradlew")); err == nil {
		return "./gradlew"
	}
	return "gradle"
}

// XcodeContainer returns the xcodebuild flag and file name for the project's
// workspace, or its project file when there is no workspace. Both are empty
// when dir has neither.
func XcodeContainer(dir string) (flag, name string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}
	var project string
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".xcworkspace"):
			return "-workspace", e.Name()
		case project == "" && strings.HasSuffix(e.Name(), ".xcodeproj"):
			project = e.Name()
		}
	}
	if project != "" {
		return "-project", project
	}
	return "", ""
}
