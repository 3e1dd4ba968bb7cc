package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GiZZoR/wyze-bridge-installer/internal/envfile"
	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
)

// State classifies an installation relative to a target version.
type State int

const (
	// StateNotInstalled means no bridge entry point exists at the install path.
	StateNotInstalled State = iota

	// StateUpToDate means the recorded version matches the target.
	StateUpToDate

	// StateStale means the recorded version differs from the target.
	StateStale

	// StateVersionUnknown means the bridge is present but no version
	// marker could be read, so no safe automatic action exists.
	StateVersionUnknown
)

// String returns a human-readable state name for log output.
func (s State) String() string {
	switch s {
	case StateNotInstalled:
		return "not installed"
	case StateUpToDate:
		return "up to date"
	case StateStale:
		return "stale"
	case StateVersionUnknown:
		return "version unknown"
	default:
		return "unknown state"
	}
}

// Installation describes what lives at the configured install path.
type Installation struct {
	// Path is the bridge install directory.
	Path string

	// EnvFile is the app env file inside the install directory.
	EnvFile string

	// Present reports whether the bridge entry point exists.
	Present bool

	// Version is the recorded installed version, empty when the marker
	// is missing or unreadable.
	Version string
}

// ProbeInstallation inspects the install directory and reads the recorded
// version marker. A missing env file or marker yields an empty Version,
// not an error.
func ProbeInstallation(installPath string) (*Installation, error) {
	inst := &Installation{
		Path:    installPath,
		EnvFile: filepath.Join(installPath, appEnvFileName),
	}

	if _, err := os.Stat(filepath.Join(installPath, entryPointFile)); err != nil {
		if os.IsNotExist(err) {
			return inst, nil
		}

		return nil, fmt.Errorf("%w: probing %q: %v", errdefs.ErrFilesystem, installPath, err)
	}

	inst.Present = true

	version, found, err := envfile.Value(inst.EnvFile, versionKey)
	if err != nil {
		return nil, fmt.Errorf("reading installed version: %w", err)
	}

	if found {
		inst.Version = version
	}

	return inst, nil
}

// StateAgainst classifies the installation relative to a target version.
func (inst *Installation) StateAgainst(target string) State {
	if !inst.Present {
		return StateNotInstalled
	}

	if inst.Version == "" {
		return StateVersionUnknown
	}

	if versionsEqual(inst.Version, target) {
		return StateUpToDate
	}

	return StateStale
}
