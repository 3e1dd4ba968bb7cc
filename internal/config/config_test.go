package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Defaults are valid.
	require.NoError(t, Validate(Default()))

	// Bad IP.
	cfg := Default()
	cfg.AppIP = "not-an-ip"
	require.Error(t, Validate(cfg))

	// Bad port.
	cfg = Default()
	cfg.AppPort = 0
	require.Error(t, Validate(cfg))

	// Missing user.
	cfg = Default()
	cfg.AppUser = ""
	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.json")

	cfg := Default()
	cfg.SettingsPath = path
	cfg.AppVersion = "2.5.0"
	cfg.AppPort = 8080
	cfg.AppGunicorn = true

	require.NoError(t, Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	loaded := Load(context.Background(), path)
	require.Equal(t, "2.5.0", loaded.AppVersion)
	require.Equal(t, 8080, loaded.AppPort)
	require.True(t, loaded.AppGunicorn)
	// Untouched keys keep defaults.
	require.Equal(t, Default().AppConf, loaded.AppConf)
}

// TestSaveOmitsSettingsPath verifies the settings file never references itself.
func TestSaveOmitsSettingsPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.json")

	cfg := Default()
	cfg.SettingsPath = path
	require.NoError(t, Save(cfg))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "INSTALLATION_CONF")
}

// TestLoadMalformedKeepsDefaults ensures a corrupted settings file is a
// warning, not a fatal error.
func TestLoadMalformedKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cfg := Load(context.Background(), path)
	require.Equal(t, Default().AppVersion, cfg.AppVersion)
	require.Equal(t, path, cfg.SettingsPath)
}

// TestParseBool covers the value spellings accepted on the command line.
func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"yes", "TRUE", "t", "y", "1"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		require.True(t, v)
	}

	for _, s := range []string{"no", "False", "f", "n", "0"} {
		v, err := ParseBool(s)
		require.NoError(t, err)
		require.False(t, v)
	}

	_, err := ParseBool("maybe")
	require.Error(t, err)
}

// TestFieldsRoundtrip ensures every registry entry can read and write its field.
func TestFieldsRoundtrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	for _, field := range Fields() {
		current := field.Get(cfg)
		require.NoError(t, field.Set(cfg, current), field.Name)
		require.Equal(t, current, field.Get(cfg), field.Name)
	}

	// Typed setters reject garbage.
	for _, name := range []string{"APP_GUNICORN", "APP_PORT"} {
		for _, field := range Fields() {
			if field.Name == name {
				require.Error(t, field.Set(cfg, "garbage"), name)
			}
		}
	}
}
