package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GiZZoR/wyze-bridge-installer/internal/archive"
	"github.com/GiZZoR/wyze-bridge-installer/internal/envfile"
	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/githubapi"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

// installBridge downloads the release tarball, extracts the application
// subtree into the install directory and records the installed version.
func (r *runner) installBridge(ctx context.Context, release *githubapi.Release, target string) error {
	logger.InfoKV(ctx, "Installing the bridge", "version", target, "path", r.cfg.AppPath)

	data, err := r.bridgeClient.Download(ctx, release.DownloadURL)
	if err != nil {
		return fmt.Errorf("download bridge release: %w", err)
	}

	// Bridge sources live under <repo>/app/ inside the tarball.
	err = archive.Extract(ctx, data, r.cfg.AppPath, appMemberFilter, appStripSegments)
	if err != nil {
		return fmt.Errorf("extract bridge release: %w", err)
	}

	// Releases ship an .env inside the app subtree, but a missing one
	// should not leave the installation without a version marker.
	if _, statErr := os.Stat(r.inst.EnvFile); os.IsNotExist(statErr) {
		if err = os.WriteFile(r.inst.EnvFile, nil, 0o644); err != nil {
			return fmt.Errorf("%w: creating %q: %v", errdefs.ErrFilesystem, r.inst.EnvFile, err)
		}
	}

	if err = envfile.Upsert(ctx, r.inst.EnvFile, versionKey, target); err != nil {
		return fmt.Errorf("record installed version: %w", err)
	}

	r.inst.Present = true
	r.inst.Version = target

	return nil
}

// replaceBridge removes the current installation and installs the target
// release in its place. Callers are expected to have taken a backup.
func (r *runner) replaceBridge(ctx context.Context, release *githubapi.Release, target string) error {
	logger.InfoKV(ctx, "Removing the old bridge", "version", r.inst.Version, "path", r.cfg.AppPath)

	if err := os.RemoveAll(r.cfg.AppPath); err != nil {
		return fmt.Errorf("%w: removing %q: %v", errdefs.ErrFilesystem, r.cfg.AppPath, err)
	}

	if err := os.MkdirAll(r.cfg.AppPath, 0o755); err != nil {
		return fmt.Errorf("%w: recreating %q: %v", errdefs.ErrFilesystem, r.cfg.AppPath, err)
	}

	return r.installBridge(ctx, release, target)
}

// backupInstallation archives the install directory and the tokens folder
// into the service account's backup directory before anything is removed.
// Archive names carry the outgoing version and a timestamp, for example
// v2.5.0-20260830-1404-wyze-bridge.tgz.
func (r *runner) backupInstallation(ctx context.Context) error {
	if err := os.MkdirAll(r.backupDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating %q: %v", errdefs.ErrFilesystem, r.backupDir(), err)
	}

	prefix := fmt.Sprintf("v%s-%s", r.inst.Version, time.Now().Format(backupTimeLayout))

	for _, dir := range []string{r.cfg.AppPath, tokensDir} {
		archivePath := filepath.Join(r.backupDir(), prefix+"-"+filepath.Base(dir)+".tgz")

		logger.InfoKV(ctx, "Backing up", "source", dir, "archive", archivePath)

		if err := archive.Create(ctx, dir, archivePath); err != nil {
			return fmt.Errorf("backup %q: %w", dir, err)
		}
	}

	return system.ChownRecursive(ctx, r.backupDir(), r.cfg.AppUser)
}
