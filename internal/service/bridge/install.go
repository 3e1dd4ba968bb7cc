package bridge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/githubapi"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/svc"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

var errMissingConfig = errors.New("configuration is required")

// Options are inputs accepted by the install and update entry points.
type Options struct {
	// Config carries the resolved installer settings.
	Config *config.Config
	// Manager is the detected init system.
	Manager svc.Manager
}

// runner holds the state for a single install or update execution.
// It is intentionally unexported, call Install or Update from callers.
type runner struct {
	cfg     *config.Config
	manager svc.Manager

	bridgeClient   *githubapi.Client
	mediamtxClient *githubapi.Client
	ffmpegClient   *githubapi.Client

	// serviceHome is the service account's home directory, created
	// together with the account itself.
	serviceHome string

	inst *Installation
}

// Install provisions the bridge, the MediaMTX relay and the supporting
// pieces (service account, Python environment, env files, init service).
// Re-running against an up-to-date installation repeats the dependent
// steps but leaves the bridge files alone.
func Install(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "install")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	if err = r.install(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.Info(ctx, "Install completed")

	return nil
}

// Update moves an existing installation to the requested bridge version,
// backing up the current files first, and refreshes the relay alongside.
func Update(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "update")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	if err = r.update(ctx); err != nil {
		logger.ErrorKV(ctx, "Update failed", "error", err)
		return err
	}

	logger.Info(ctx, "Update completed")

	return nil
}

// newRunner validates the options, ensures the service account exists and
// probes the current installation.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if opts == nil || opts.Config == nil {
		return nil, errMissingConfig
	}

	cfg := opts.Config
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	home, err := system.EnsureUser(ctx, cfg.AppUser)
	if err != nil {
		return nil, err
	}

	inst, err := ProbeInstallation(cfg.AppPath)
	if err != nil {
		return nil, err
	}

	return &runner{
		cfg:            cfg,
		manager:        opts.Manager,
		bridgeClient:   githubapi.NewClient(bridgeOwner, bridgeRepo),
		mediamtxClient: githubapi.NewClient(mediamtxOwner, mediamtxRepo),
		ffmpegClient:   githubapi.NewClient(ffmpegOwner, ffmpegRepo),
		serviceHome:    home,
		inst:           inst,
	}, nil
}

// install runs the full provisioning workflow. The bridge files are only
// written when nothing is installed yet; every dependent step runs
// unconditionally so a re-run converges a partially provisioned host.
func (r *runner) install(ctx context.Context) error {
	release, err := r.bridgeClient.Resolve(ctx, r.cfg.AppVersion, "")
	if err != nil {
		return fmt.Errorf("resolve bridge release: %w", err)
	}

	target := normalizeVersion(release.Tag)
	state := r.inst.StateAgainst(target)

	logger.InfoKV(ctx, "Bridge installation state",
		"state", state.String(), "installed", r.inst.Version, "target", target)

	switch state {
	case StateVersionUnknown:
		return fmt.Errorf("%w: bridge at %s has no recorded version, refusing to overwrite it",
			errdefs.ErrStateConflict, r.cfg.AppPath)
	case StateStale:
		return fmt.Errorf("%w: bridge %s is already installed at %s, run update to move to %s",
			errdefs.ErrStateConflict, r.inst.Version, r.cfg.AppPath, target)
	}

	if err = r.ensureFolders(ctx); err != nil {
		return err
	}

	if state == StateNotInstalled {
		if err = r.installBridge(ctx, release, target); err != nil {
			return err
		}
	} else {
		logger.InfoKV(ctx, "Bridge is already up to date", "version", target)
	}

	if err = r.setupPython(ctx); err != nil {
		return err
	}

	if err = r.installIOTCLibrary(ctx); err != nil {
		return err
	}

	if err = r.writeSettingsFile(ctx); err != nil {
		return err
	}

	if _, err = r.reconcileMediaMTX(ctx); err != nil {
		return err
	}

	if err = r.patchRelayPath(ctx); err != nil {
		return err
	}

	if err = r.installFFmpeg(ctx); err != nil {
		return err
	}

	if err = system.ChownRecursive(ctx, r.cfg.AppPath, r.cfg.AppUser); err != nil {
		return err
	}

	return r.registerService(ctx)
}

// update replaces a stale installation, moving aside a backup first.
// A host without a bridge or without a readable version marker needs
// operator attention instead of an automatic rewrite.
func (r *runner) update(ctx context.Context) error {
	release, err := r.bridgeClient.Resolve(ctx, r.cfg.AppVersion, "")
	if err != nil {
		return fmt.Errorf("resolve bridge release: %w", err)
	}

	target := normalizeVersion(release.Tag)
	state := r.inst.StateAgainst(target)

	logger.InfoKV(ctx, "Bridge installation state",
		"state", state.String(), "installed", r.inst.Version, "target", target)

	switch state {
	case StateNotInstalled:
		return fmt.Errorf("%w: no bridge found at %s, run install first",
			errdefs.ErrStateConflict, r.cfg.AppPath)
	case StateVersionUnknown:
		return fmt.Errorf("%w: bridge at %s has no recorded version, restore it before updating",
			errdefs.ErrStateConflict, r.cfg.AppPath)
	}

	changed := false

	if state == StateStale {
		if err = r.backupInstallation(ctx); err != nil {
			return err
		}

		if err = r.replaceBridge(ctx, release, target); err != nil {
			return err
		}

		if err = r.installRequirements(ctx); err != nil {
			return err
		}

		if err = system.ChownRecursive(ctx, r.cfg.AppPath, r.cfg.AppUser); err != nil {
			return err
		}

		changed = true
	} else {
		logger.InfoKV(ctx, "Bridge is already up to date", "version", target)
	}

	relayChanged, err := r.reconcileMediaMTX(ctx)
	if err != nil {
		return err
	}

	if relayChanged {
		if err = r.patchRelayPath(ctx); err != nil {
			return err
		}
	}

	if !changed && !relayChanged {
		logger.Info(ctx, "Nothing to update")
		return nil
	}

	logger.Info(ctx, "Restarting the bridge service")

	return r.manager.Restart(ctx)
}

// ensureFolders provisions the fixed bridge folders and both install
// directories, owned by the service account.
func (r *runner) ensureFolders(ctx context.Context) error {
	folders := []string{
		imagesDir,
		tokensDir,
		r.cfg.AppPath,
		r.cfg.MediaMTXPath,
	}

	return system.EnsureFolders(ctx, folders, r.cfg.AppUser)
}

// registerService writes the init-system definition and enables it.
func (r *runner) registerService(ctx context.Context) error {
	unit := &svc.UnitConfig{
		User:        r.cfg.AppUser,
		InstallDir:  r.cfg.AppPath,
		VenvDir:     r.venvDir(),
		AppEnvFile:  r.inst.EnvFile,
		UserEnvFile: r.cfg.AppConf,
		ListenIP:    r.cfg.AppIP,
		ListenPort:  r.cfg.AppPort,
		UseGunicorn: r.cfg.AppGunicorn,
	}

	if err := r.manager.WriteUnit(ctx, unit); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Service definition written", "path", r.manager.UnitPath())

	return r.manager.Register(ctx)
}

// venvDir is the Python virtual environment under the service home.
func (r *runner) venvDir() string {
	return filepath.Join(r.serviceHome, venvDirName)
}

// backupDir collects pre-update archives under the service home.
func (r *runner) backupDir() string {
	return filepath.Join(r.serviceHome, backupDirName)
}
