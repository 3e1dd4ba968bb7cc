package svc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
)

func testUnitConfig() *UnitConfig {
	return &UnitConfig{
		User:        "wyze",
		InstallDir:  "/srv/wyze-bridge",
		VenvDir:     "/home/wyze/.wyze-venv",
		AppEnvFile:  "/srv/wyze-bridge/.env",
		UserEnvFile: "/etc/wyze-bridge/app.env",
		ListenIP:    "0.0.0.0",
		ListenPort:  5000,
	}
}

// TestDetectAt exercises the fixed-path probe with fake control binaries.
func TestDetectAt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	systemctl := filepath.Join(dir, "systemctl")
	rcUpdate := filepath.Join(dir, "rc-update")

	_, err := detectAt(systemctl, rcUpdate)
	require.ErrorIs(t, err, errdefs.ErrEnvironment)

	require.NoError(t, os.WriteFile(rcUpdate, []byte{}, 0o755))

	manager, err := detectAt(systemctl, rcUpdate)
	require.NoError(t, err)
	require.Equal(t, OpenRC, manager)

	require.NoError(t, os.WriteFile(systemctl, []byte{}, 0o755))

	manager, err = detectAt(systemctl, rcUpdate)
	require.NoError(t, err)
	require.Equal(t, Systemd, manager)
}

// TestRenderSystemdUnit checks both start-command variants of the systemd template.
func TestRenderSystemdUnit(t *testing.T) {
	t.Parallel()

	cfg := testUnitConfig()

	unit, err := Systemd.renderUnit(cfg)
	require.NoError(t, err)
	require.Contains(t, unit, "User=wyze")
	require.Contains(t, unit, "WorkingDirectory=/srv/wyze-bridge")
	require.Contains(t, unit, "EnvironmentFile=/srv/wyze-bridge/.env")
	require.Contains(t, unit, "EnvironmentFile=/etc/wyze-bridge/app.env")
	require.Contains(t, unit,
		"ExecStart=/home/wyze/.wyze-venv/bin/flask --app frontend run --host 0.0.0.0 --port 5000")

	cfg.UseGunicorn = true

	unit, err = Systemd.renderUnit(cfg)
	require.NoError(t, err)
	require.Contains(t, unit,
		"ExecStart=/home/wyze/.wyze-venv/bin/gunicorn --bind=0.0.0.0:5000 --workers=1 --threads=1 'frontend:create_app()'")
}

// TestRenderOpenRCUnit checks the OpenRC script variant.
func TestRenderOpenRCUnit(t *testing.T) {
	t.Parallel()

	cfg := testUnitConfig()

	unit, err := OpenRC.renderUnit(cfg)
	require.NoError(t, err)
	require.Contains(t, unit, "#!/sbin/openrc-run")
	require.Contains(t, unit, `command="/home/wyze/.wyze-venv/bin/flask"`)
	require.Contains(t, unit, `command_user="wyze"`)
	require.Contains(t, unit, "--name flask")

	cfg.UseGunicorn = true

	unit, err = OpenRC.renderUnit(cfg)
	require.NoError(t, err)
	require.Contains(t, unit, `command="/home/wyze/.wyze-venv/bin/gunicorn"`)
	require.Contains(t, unit, "-u wyze -g wyze frontend:create_app()")
	require.Contains(t, unit, "--name gunicorn")
}

// TestUnitPath pins the fixed unit locations.
func TestUnitPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/etc/systemd/system/wyze-bridge.service", Systemd.UnitPath())
	require.Equal(t, "/etc/init.d/wyze-bridge", OpenRC.UnitPath())
}
