// Package version exposes the installer's build metadata. Version,
// Commit and BuildTime are injected through ldflags on release builds
// and fall back to development defaults otherwise.
package version
