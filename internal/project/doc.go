// Package project detects what kind of codebase devflow is running in.
//
// Detection:
//
// A directory is classified from the files at its root:
//   - ios: an .xcodeproj or .xcworkspace, or a Podfile next to Swift sources
//   - android: build.gradle(.kts), settings.gradle(.kts) or
//     app/src/main/AndroidManifest.xml
//   - unknown: anything else
//
// Overrides:
//
// A project can describe its own lint commands in .dev-flow.json or
// .dev-flow.toml (type custom), or expose `fix:` and `check:` targets in its
// Makefile (type makefile). Resolve applies them in that order ahead of
// auto-detection.
package project
