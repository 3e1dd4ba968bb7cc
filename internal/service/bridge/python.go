package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

// settingsTemplate seeds the user-editable env file. Credentials stay
// commented out so the operator fills them in before first start.
const settingsTemplate = `# wyze-bridge settings.
# Uncomment and fill in your Wyze credentials before starting the service.
# See https://github.com/mrlt8/docker-wyze-bridge/wiki for every option.
#WYZE_EMAIL=
#WYZE_PASSWORD=
#API_ID=
#API_KEY=
`

// setupPython creates the virtual environment, installs the bridge's
// Python dependencies and, when configured, the gunicorn server.
func (r *runner) setupPython(ctx context.Context) error {
	venv := r.venvDir()

	if _, err := os.Stat(filepath.Join(venv, "bin", "pip")); err == nil {
		logger.InfoKV(ctx, "Virtual environment already exists", "path", venv)
	} else {
		logger.InfoKV(ctx, "Creating virtual environment", "path", venv)

		if err = system.RunCommand(ctx, "python3", "-m", "venv", venv); err != nil {
			return fmt.Errorf("create virtual environment: %w", err)
		}
	}

	if err := r.installRequirements(ctx); err != nil {
		return err
	}

	if r.cfg.AppGunicorn {
		logger.Info(ctx, "Installing gunicorn")

		err := system.RunCommand(ctx, r.pip(), "install", "--disable-pip-version-check", "gunicorn")
		if err != nil {
			return fmt.Errorf("install gunicorn: %w", err)
		}
	}

	return system.ChownRecursive(ctx, venv, r.cfg.AppUser)
}

// installRequirements installs the bridge's pinned Python dependencies
// into the virtual environment.
func (r *runner) installRequirements(ctx context.Context) error {
	requirements := filepath.Join(r.cfg.AppPath, "requirements.txt")

	if _, err := os.Stat(requirements); err != nil {
		return fmt.Errorf("%w: %s is missing, the bridge extraction looks incomplete",
			errdefs.ErrFilesystem, requirements)
	}

	logger.InfoKV(ctx, "Installing Python requirements", "file", requirements)

	err := system.RunCommand(ctx, r.pip(), "install", "--disable-pip-version-check", "-r", requirements)
	if err != nil {
		return fmt.Errorf("install requirements: %w", err)
	}

	return nil
}

// pip is the pip executable inside the virtual environment.
func (r *runner) pip() string {
	return filepath.Join(r.venvDir(), "bin", "pip")
}

// installIOTCLibrary copies the TUTK camera library shipped with the
// bridge into the system library path. The copy is skipped when the
// installed library already has identical contents.
func (r *runner) installIOTCLibrary(ctx context.Context) error {
	source := filepath.Join(r.cfg.AppPath, iotcSourceRelPath)

	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WarnKV(ctx, "Camera library not found in bridge sources", "path", source)
			return nil
		}

		return fmt.Errorf("%w: reading %q: %v", errdefs.ErrFilesystem, source, err)
	}

	if installed, readErr := os.ReadFile(iotcTargetPath); readErr == nil && bytes.Equal(installed, data) {
		logger.InfoKV(ctx, "Camera library is already installed", "path", iotcTargetPath)
		return nil
	}

	logger.InfoKV(ctx, "Installing camera library", "path", iotcTargetPath)

	if err = os.WriteFile(iotcTargetPath, data, 0o755); err != nil {
		return fmt.Errorf("%w: writing %q: %v", errdefs.ErrFilesystem, iotcTargetPath, err)
	}

	return nil
}

// writeSettingsFile seeds the user-editable settings env file. An
// existing file is left untouched so operator edits survive re-runs.
func (r *runner) writeSettingsFile(ctx context.Context) error {
	path := r.cfg.AppConf

	if _, err := os.Stat(path); err == nil {
		logger.InfoKV(ctx, "Settings file already exists, leaving it alone", "path", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: creating %q: %v", errdefs.ErrFilesystem, filepath.Dir(path), err)
	}

	logger.InfoKV(ctx, "Creating settings file", "path", path)

	if err := os.WriteFile(path, []byte(settingsTemplate), 0o600); err != nil {
		return fmt.Errorf("%w: writing %q: %v", errdefs.ErrFilesystem, path, err)
	}

	return system.ChownRecursive(ctx, path, r.cfg.AppUser)
}
