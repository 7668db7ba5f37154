package project

import (
	"os"
	"path/filepath"
)

// PathLooker reports whether an executable is on PATH.
type PathLooker interface {
	LookPath(name string) bool
}

// AvailableTools reports which of the platform's tools are installed. Gradle
// counts as available when the project carries a wrapper. Other project
// types have no tools.
func AvailableTools(info Info, look PathLooker) map[string]bool {
	switch info.Type {
	case TypeIOS:
		return map[string]bool{
			"swiftlint":   look.LookPath("swiftlint"),
			"swiftformat": look.LookPath("swiftformat"),
			"xcodebuild":  look.LookPath("xcodebuild"),
			"pod":         look.LookPath("pod"),
		}
	case TypeAndroid:
		_, err := os.Stat(filepath.Join(info.Path, "gradlew"))
		return map[string]bool{
			"ktlint": look.LookPath("ktlint"),
			"detekt": look.LookPath("detekt"),
			"gradle": err == nil || look.LookPath("gradle"),
		}
	default:
		return map[string]bool{}
	}
}
