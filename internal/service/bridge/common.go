package bridge

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// Upstream repositories the installer provisions from.
	bridgeOwner    = "mrlt8"
	bridgeRepo     = "docker-wyze-bridge"
	mediamtxOwner  = "bluenviron"
	mediamtxRepo   = "mediamtx"
	ffmpegOwner    = "homebridge"
	ffmpegRepo     = "ffmpeg-for-homebridge"

	// entryPointFile marks a present bridge installation.
	entryPointFile = "frontend.py"

	// appEnvFileName is the bridge's own env file inside the install dir.
	// It is overwritten on every (re)install; the user-editable settings
	// env file lives elsewhere and is never touched by extraction.
	appEnvFileName = ".env"

	// versionKey is the installed-version marker inside the app env file.
	versionKey = "VERSION"

	// mtxTagKey records the installed MediaMTX version in the app env file.
	mtxTagKey = "MTX_TAG"

	// Source tarball layout: bridge files live under <root>/app/, so
	// extraction filters on the segment and strips the two leading ones.
	appMemberFilter  = "/app/"
	appStripSegments = 2

	// mediamtxAssetPattern selects the Linux build among release assets.
	mediamtxAssetPattern = "linux_amd64"

	// ffmpegAssetPattern selects the x86_64 build of ffmpeg-for-homebridge.
	ffmpegAssetPattern = "x86_64"

	// mediamtxBinaryName is the relay executable inside MediaMTXPath.
	mediamtxBinaryName = "mediamtx"

	// venvDirName is the Python virtual environment under the service
	// account's home directory.
	venvDirName = ".wyze-venv"

	// backupDirName collects pre-update archives under the service
	// account's home directory.
	backupDirName = "wyze-backups"

	// Fixed folders provisioned for the bridge next to the install path.
	imagesDir = "/img"
	tokensDir = "/tokens"

	// TUTK IOTC camera library shipped inside the bridge sources.
	iotcSourceRelPath = "lib/lib.amd64"
	iotcTargetPath    = "/usr/local/lib/libIOTCAPIs_ALL.so"

	// backupTimeLayout names backup archives, e.g. v2.5.0-20260830-1404.
	backupTimeLayout = "20060102-1504"
)

// normalizeVersion strips a leading "v" so tags compare against the
// versions recorded in env files.
func normalizeVersion(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// versionsEqual compares two version strings semantically when both parse
// as semver, falling back to exact string comparison otherwise.
func versionsEqual(a, b string) bool {
	left, leftErr := semver.NewVersion(normalizeVersion(a))
	right, rightErr := semver.NewVersion(normalizeVersion(b))

	if leftErr == nil && rightErr == nil {
		return left.Equal(right)
	}

	return a == b
}
