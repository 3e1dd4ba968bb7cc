package bridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiZZoR/wyze-bridge-installer/internal/archive"
	"github.com/GiZZoR/wyze-bridge-installer/internal/envfile"
	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

// relaySourceFile is the bridge module that hard-codes the container
// path of the relay binary.
const relaySourceFile = "wyzebridge/mtx_server.py"

// containerRelayPath is the path baked into the bridge sources, written
// for the upstream container image.
const containerRelayPath = "/app/mediamtx"

// versionProbeTimeout bounds the local relay version probe.
const versionProbeTimeout = 10 * time.Second

// reconcileMediaMTX brings the relay binary to the requested version and
// records it in the app env file. It reports whether the binary changed.
func (r *runner) reconcileMediaMTX(ctx context.Context) (bool, error) {
	release, err := r.mediamtxClient.Resolve(ctx, r.cfg.MediaMTXVersion, mediamtxAssetPattern)
	if err != nil {
		return false, fmt.Errorf("resolve mediamtx release: %w", err)
	}

	target := normalizeVersion(release.Tag)
	binary := filepath.Join(r.cfg.MediaMTXPath, mediamtxBinaryName)
	current := localMediaMTXVersion(ctx, binary)

	if current != "" && versionsEqual(current, target) {
		logger.InfoKV(ctx, "MediaMTX is already up to date", "version", current)

		return false, envfile.Upsert(ctx, r.inst.EnvFile, mtxTagKey, target)
	}

	logger.InfoKV(ctx, "Installing MediaMTX", "installed", current, "target", target)

	// A running relay holds the binary open, stop it before replacing.
	if err = system.TerminateProcesses(ctx, mediamtxBinaryName); err != nil {
		return false, err
	}

	data, err := r.mediamtxClient.Download(ctx, release.DownloadURL)
	if err != nil {
		return false, fmt.Errorf("download mediamtx release: %w", err)
	}

	// Release archives carry a LICENSE next to the binary and its config;
	// only the relay's own files belong in the install directory.
	if err = archive.Extract(ctx, data, r.cfg.MediaMTXPath, mediamtxBinaryName, 0); err != nil {
		return false, fmt.Errorf("extract mediamtx release: %w", err)
	}

	if err = os.Chmod(binary, 0o755); err != nil {
		return false, fmt.Errorf("%w: chmod %q: %v", errdefs.ErrFilesystem, binary, err)
	}

	if err = system.ChownRecursive(ctx, r.cfg.MediaMTXPath, r.cfg.AppUser); err != nil {
		return false, err
	}

	if err = envfile.Upsert(ctx, r.inst.EnvFile, mtxTagKey, target); err != nil {
		return false, fmt.Errorf("record mediamtx version: %w", err)
	}

	return true, nil
}

// localMediaMTXVersion asks the installed binary for its version. An
// absent or broken binary yields an empty string, which reads as "not
// installed" to the reconciler.
func localMediaMTXVersion(ctx context.Context, binary string) string {
	if _, err := os.Stat(binary); err != nil {
		return ""
	}

	cmdCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, binary, "--version").Output()
	if err != nil {
		logger.Warnf(ctx, "Could not get MediaMTX version from %s: %v", binary, err)
		return ""
	}

	return parseMediaMTXVersion(string(output))
}

// parseMediaMTXVersion extracts the version from output like
// "mediamtx v1.9.3".
func parseMediaMTXVersion(output string) string {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) == 0 {
		return ""
	}

	return normalizeVersion(fields[len(fields)-1])
}

// patchRelayPath rewrites the container relay path baked into the bridge
// sources so the bridge starts the binary from the configured directory.
func (r *runner) patchRelayPath(ctx context.Context) error {
	path := filepath.Join(r.cfg.AppPath, relaySourceFile)

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WarnKV(ctx, "Relay source file not found, skipping patch", "path", path)
			return nil
		}

		return fmt.Errorf("%w: reading %q: %v", errdefs.ErrFilesystem, path, err)
	}

	replacement := filepath.Join(r.cfg.MediaMTXPath, mediamtxBinaryName)

	patched := strings.ReplaceAll(string(contents), containerRelayPath, replacement)
	if patched == string(contents) {
		logger.DebugKV(ctx, "Relay path already patched", "path", path)
		return nil
	}

	logger.InfoKV(ctx, "Patching relay path", "file", path, "path", replacement)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %q: %v", errdefs.ErrFilesystem, path, err)
	}

	if err = os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return fmt.Errorf("%w: writing %q: %v", errdefs.ErrFilesystem, path, err)
	}

	return nil
}
