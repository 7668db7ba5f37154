package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/devflow/internal/workflow"
)

// layout creates files (trailing slash for directories) under a temp dir
// named name.
func layout(t *testing.T, name string, paths ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, p := range paths {
		full := filepath.Join(dir, p)
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}
	return dir
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		dirName     string
		paths       []string
		wantType    Type
		wantName    string
		wantSrc     string
		wantConfigs []string
	}{
		{
			name:        "xcodeproj with matching source dir",
			dirName:     "shop",
			paths:       []string{"Shop.xcodeproj/", "Shop/", ".swiftlint.yml", "Podfile"},
			wantType:    TypeIOS,
			wantName:    "Shop",
			wantSrc:     "Shop",
			wantConfigs: []string{".swiftlint.yml", "Podfile"},
		},
		{
			name:     "workspace uses directory name and Sources",
			dirName:  "shop",
			paths:    []string{"Shop.xcworkspace/", "Sources/"},
			wantType: TypeIOS,
			wantName: "shop",
			wantSrc:  "Sources",
		},
		{
			name:        "podfile with swift files",
			dirName:     "kit",
			paths:       []string{"Podfile", "main.swift", "src/", ".swiftformat"},
			wantType:    TypeIOS,
			wantName:    "kit",
			wantSrc:     "src",
			wantConfigs: []string{".swiftformat", "Podfile"},
		},
		{
			name:     "podfile alone is not ios",
			dirName:  "pods",
			paths:    []string{"Podfile"},
			wantType: TypeUnknown,
			wantName: "pods",
			wantSrc:  ".",
		},
		{
			name:     "no source dir keeps project name",
			dirName:  "bare",
			paths:    []string{"Bare.xcodeproj/"},
			wantType: TypeIOS,
			wantName: "Bare",
			wantSrc:  "Bare",
		},
		{
			name:        "gradle",
			dirName:     "droid",
			paths:       []string{"build.gradle.kts", "detekt.yml", ".editorconfig"},
			wantType:    TypeAndroid,
			wantName:    "droid",
			wantSrc:     "app/src/main",
			wantConfigs: []string{".editorconfig", "detekt.yml", "build.gradle"},
		},
		{
			name:     "settings only",
			dirName:  "droid",
			paths:    []string{"settings.gradle"},
			wantType: TypeAndroid,
			wantName: "droid",
			wantSrc:  "app/src/main",
		},
		{
			name:     "manifest only",
			dirName:  "droid",
			paths:    []string{"app/src/main/AndroidManifest.xml"},
			wantType: TypeAndroid,
			wantName: "droid",
			wantSrc:  "app/src/main",
		},
		{
			name:     "ios wins over android",
			dirName:  "both",
			paths:    []string{"Both.xcodeproj/", "build.gradle"},
			wantType: TypeIOS,
			wantName: "Both",
			wantSrc:  "Both",
		},
		{
			name:     "unknown",
			dirName:  "service",
			paths:    []string{"go.mod", "main.go"},
			wantType: TypeUnknown,
			wantName: "service",
			wantSrc:  ".",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := layout(t, tt.dirName, tt.paths...)
			info, err := Detect(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, info.Type)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantSrc, info.SrcDir)
			assert.Equal(t, dir, info.Path)
			if tt.wantConfigs == nil {
				assert.NotNil(t, info.ConfigFiles)
				assert.Empty(t, info.ConfigFiles)
				return
			}
			assert.Equal(t, tt.wantConfigs, info.ConfigFiles)
		})
	}
}

func TestInfo_JSONConfigFilesNeverNull(t *testing.T) {
	for _, paths := range [][]string{{"go.mod"}, {"Bare.xcodeproj/"}, {"settings.gradle"}} {
		dir := layout(t, "proj", paths...)
		info, _, err := Resolve(dir)
		require.NoError(t, err)

		out, err := json.Marshal(info)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"configFiles":[]`, paths[0])
	}
}

func TestDetect_MissingDir(t *testing.T) {
	_, err := Detect(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestType_Platform(t *testing.T) {
	assert.Equal(t, workflow.PlatformIOS, TypeIOS.Platform())
	assert.Equal(t, workflow.PlatformAndroid, TypeAndroid.Platform())
	for _, typ := range []Type{TypeCustom, TypeMakefile, TypeUnknown} {
		assert.Equal(t, workflow.PlatformGeneric, typ.Platform(), typ)
	}
	assert.True(t, Info{Type: TypeIOS}.HasLinters())
	assert.False(t, Info{Type: TypeMakefile}.HasLinters())
}

func TestResolve(t *testing.T) {
	t.Run("custom config on unknown project", func(t *testing.T) {
		dir := layout(t, "svc")
		writeFile(t, dir, ConfigJSON, `{"platform":"go","commands":{"fix":"gofmt -w .","check":"go vet ./..."}}`)

		info, cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, TypeCustom, info.Type)
		require.NotNil(t, cfg)
		assert.Equal(t, "go", cfg.Platform)
	})

	t.Run("makefile on unknown project", func(t *testing.T) {
		dir := layout(t, "svc")
		writeFile(t, dir, "Makefile", "fix:\n\tgofmt -w .\ncheck:\n\tgo vet ./...\n")

		info, cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, TypeMakefile, info.Type)
		assert.Nil(t, cfg)
	})

	t.Run("ios keeps its type with a config", func(t *testing.T) {
		dir := layout(t, "app", "App.xcodeproj/")
		writeFile(t, dir, ConfigTOML, "platform = \"ios\"\n[commands]\nfix = \"make fix\"\ncheck = \"make lint\"\n")

		info, cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, TypeIOS, info.Type)
		require.NotNil(t, cfg)
		assert.Equal(t, ConfigTOML, cfg.Source)
	})

	t.Run("broken config still detects", func(t *testing.T) {
		dir := layout(t, "svc")
		writeFile(t, dir, ConfigJSON, "{")
		writeFile(t, dir, "Makefile", "fix:\ncheck:\n")

		info, cfg, err := Resolve(dir)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, cfg)
		assert.Equal(t, TypeMakefile, info.Type)
	})
}

func TestGradle(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "gradle", Gradle(dir))
	writeFile(t, dir, "gradlew", "#!/bin/sh\n")
	assert.Equal(t, "./gradlew", Gradle(dir))
}

type fakeLooker map[string]bool

func (f fakeLooker) LookPath(name string) bool { return f[name] }

func TestAvailableTools(t *testing.T) {
	look := fakeLooker{"swiftlint": true, "ktlint": true}

	ios := AvailableTools(Info{Type: TypeIOS}, look)
	assert.Equal(t, map[string]bool{"swiftlint": true, "swiftformat": false, "xcodebuild": false, "pod": false}, ios)

	dir := t.TempDir()
	android := AvailableTools(Info{Type: TypeAndroid, Path: dir}, look)
	assert.Equal(t, map[string]bool{"ktlint": true, "detekt": false, "gradle": false}, android)

	writeFile(t, dir, "gradlew", "")
	assert.True(t, AvailableTools(Info{Type: TypeAndroid, Path: dir}, look)["gradle"])

	assert.Empty(t, AvailableTools(Info{Type: TypeUnknown}, look))
}

func TestXcodeContainer(t *testing.T) {
	flag, name := XcodeContainer(layout(t, "a", "App.xcodeproj/", "App.xcworkspace/"))
	assert.Equal(t, "-workspace", flag)
	assert.Equal(t, "App.xcworkspace", name)

	flag, name = XcodeContainer(layout(t, "b", "App.xcodeproj/"))
	assert.Equal(t, "-project", flag)
	assert.Equal(t, "App.xcodeproj", name)

	flag, name = XcodeContainer(layout(t, "c"))
	assert.Empty(t, flag)
	assert.Empty(t, name)
}
