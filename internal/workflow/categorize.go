package workflow

import (
	"regexp"
)

// FileChange is one path in a diff with its line counts.
type FileChange struct {
	Path    string
	Added   int
	Deleted int
}

var (
	swiftPattern      = regexp.MustCompile(`\.swift$`)
	objcPattern       = regexp.MustCompile(`\.(m|h)$`)
	kotlinPattern     = regexp.MustCompile(`\.kt$`)
	javaPattern       = regexp.MustCompile(`\.java$`)
	uiPattern         = regexp.MustCompile(`\.(storyboard|xib|xml)$`)
	xmlPattern        = regexp.MustCompile(`\.xml$`)
	podfilePattern    = regexp.MustCompile(`^Podfile`)
	xcodeprojPattern  = regexp.MustCompile(`\.xcodeproj`)
	gradlePattern     = regexp.MustCompile(`\.gradle`)
	docPattern        = regexp.MustCompile(`\.(md|txt)$`)
	repoConfigPattern = regexp.MustCompile(`^\.(github|claude)/`)
)

func count(files []FileChange, re *regexp.Regexp) int {
	n := 0
	for _, f := range files {
		if re.MatchString(f.Path) {
			n++
		}
	}
	return n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CategorizeChanges builds ChangeStats from a diff's file list. Which file
// kinds count as code, dependency or project configuration depends on the
// platform.
func CategorizeChanges(files []FileChange, platform Platform) ChangeStats {
	var s ChangeStats
	for _, f := range files {
		s.LinesAdded += f.Added
		s.LinesDeleted += f.Deleted
	}
	s.TotalLines = s.LinesAdded + s.LinesDeleted
	s.FilesChanged = len(files)

	s.SwiftFiles = count(files, swiftPattern)
	s.ObjCFiles = count(files, objcPattern)
	s.KotlinFiles = count(files, kotlinPattern)
	s.JavaFiles = count(files, javaPattern)
	s.UIFiles = count(files, uiPattern)
	xmlFiles := count(files, xmlPattern)

	podfile := count(files, podfilePattern) > 0
	xcodeproj := count(files, xcodeprojPattern) > 0
	gradle := count(files, gradlePattern) > 0

	s.DocFiles = count(files, docPattern)
	s.ConfigFiles = count(files, repoConfigPattern)
	s.TotalNonCodeFiles = s.DocFiles + s.ConfigFiles

	switch platform {
	case PlatformIOS:
		s.DependencyChanged = podfile
		s.ProjectConfigChanged = xcodeproj
		s.TotalCodeFiles = s.SwiftFiles + s.ObjCFiles + s.UIFiles + boolInt(podfile) + boolInt(xcodeproj)
	case PlatformAndroid:
		s.DependencyChanged = gradle
		s.ProjectConfigChanged = gradle
		s.TotalCodeFiles = s.KotlinFiles + s.JavaFiles + xmlFiles + boolInt(gradle)
	default:
		s.DependencyChanged = podfile || gradle
		s.ProjectConfigChanged = xcodeproj || gradle
		s.TotalCodeFiles = s.SwiftFiles + s.ObjCFiles + s.KotlinFiles + s.JavaFiles + s.UIFiles
	}
	return s
}

// IsCodeFile reports whether path is a source file for the platform: Swift
// on iOS, Kotlin or Java on Android, any of Swift, Objective-C, Kotlin or
// Java otherwise.
func IsCodeFile(path string, platform Platform) bool {
	switch platform {
	case PlatformIOS:
		return swiftPattern.MatchString(path)
	case PlatformAndroid:
		return kotlinPattern.MatchString(path) || javaPattern.MatchString(path)
	default:
		return swiftPattern.MatchString(path) || objcPattern.MatchString(path) ||
			kotlinPattern.MatchString(path) || javaPattern.MatchString(path)
	}
}
