package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

// Config holds the installer's own settings. The JSON keys match the
// persisted settings file produced by earlier releases, so an existing
// /etc/wyze-bridge/install.json keeps working across upgrades.
type Config struct {
	// AppConf is the path to the env file holding user-editable bridge settings.
	AppConf string `json:"APP_CONF"`
	// AppGunicorn selects the gunicorn front end instead of the flask dev server.
	AppGunicorn bool `json:"APP_GUNICORN"`
	// AppIP is the address the bridge web UI listens on.
	AppIP string `json:"APP_IP"`
	// AppPath is the bridge installation directory.
	AppPath string `json:"APP_PATH"`
	// AppPort is the port the bridge web UI listens on.
	AppPort int `json:"APP_PORT"`
	// AppUser is the service account the bridge runs as.
	AppUser string `json:"APP_USER"`
	// AppVersion is the requested bridge version ("latest", a tag or a name).
	AppVersion string `json:"APP_VERSION"`
	// MediaMTXVersion is the requested MediaMTX version.
	MediaMTXVersion string `json:"MEDIA_MTX_VERSION"`
	// MediaMTXPath is the MediaMTX installation directory.
	MediaMTXPath string `json:"MEDIA_MTX_PATH"`
	// SettingsPath is where this configuration is persisted. It is not
	// written into the file to avoid a self-referential entry.
	SettingsPath string `json:"-"`
}

const (
	// DefaultSettingsPath is where the installer persists its settings.
	DefaultSettingsPath = "/etc/wyze-bridge/install.json"

	// DefaultFilePermissions restricts persisted settings to the owner.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is used when creating settings parent directories.
	DefaultDirPermissions = 0o750
)

var (
	errConfigIsNotSet  = errors.New("configuration is not set")
	errInvalidListenIP = errors.New("listen address is not a valid IP")
	errInvalidPort     = errors.New("listen port is out of range")
	errUserRequired    = errors.New("service user must be provided")
	errPathRequired    = errors.New("installation paths must be provided")
	errNotBoolean      = errors.New("boolean value expected")
)

// Default returns the built-in configuration, before any file or flag overlay.
func Default() *Config {
	return &Config{
		AppConf:         "/etc/wyze-bridge/app.env",
		AppGunicorn:     false,
		AppIP:           "0.0.0.0",
		AppPath:         "/srv/wyze-bridge",
		AppPort:         5000,
		AppUser:         "wyze",
		AppVersion:      "latest",
		MediaMTXVersion: "latest",
		MediaMTXPath:    "/srv/mediamtx",
		SettingsPath:    DefaultSettingsPath,
	}
}

// Load returns the defaults overlaid with the persisted settings file, when
// one exists. A missing file is normal on first run. Malformed content is
// the single non-fatal failure in the installer: the operator is warned and
// defaults are kept.
func Load(ctx context.Context, path string) *Config {
	cfg := Default()
	if path != "" {
		cfg.SettingsPath = path
	}

	ApplyFile(ctx, cfg)

	return cfg
}

// ApplyFile overlays the persisted settings file onto cfg in place.
// Keys absent from the file keep their current values.
func ApplyFile(ctx context.Context, cfg *Config) {
	contents, err := os.ReadFile(filepath.Clean(cfg.SettingsPath))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf(ctx, "Unexpected error reading from %s: %v", cfg.SettingsPath, err)
		}

		return
	}

	if err = json.Unmarshal(contents, cfg); err != nil {
		logger.Warnf(ctx, "Ignoring malformed settings file %s: %v", cfg.SettingsPath, err)
	}
}

// Save persists cfg as indented JSON at cfg.SettingsPath,
// creating parent directories as needed.
func Save(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SettingsPath), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err = os.WriteFile(filepath.Clean(cfg.SettingsPath), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if net.ParseIP(cfg.AppIP) == nil {
		return fmt.Errorf("%w: %q", errInvalidListenIP, cfg.AppIP)
	}

	if cfg.AppPort < 1 || cfg.AppPort > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, cfg.AppPort)
	}

	if cfg.AppUser == "" {
		return errUserRequired
	}

	if cfg.AppPath == "" || cfg.MediaMTXPath == "" {
		return errPathRequired
	}

	return nil
}

// ParseBool accepts the value spellings the original installer accepted
// on the command line (yes/no, y/n, t/f, 1/0, true/false).
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "t", "y", "1":
		return true, nil
	case "no", "false", "f", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w, got %q", errNotBoolean, value)
	}
}

// parsePort converts a flag value into a TCP port number.
func parsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidPort, value)
	}

	return port, nil
}
