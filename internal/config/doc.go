// Package config holds the installer's own settings: the typed Config
// structure, JSON persistence compatible with the historical
// install.json layout, and the static field registry that drives both
// CLI flag registration and show-settings output.
package config
