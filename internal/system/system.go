package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

const (
	// DefaultProbeHost is the host used for the reachability pre-check.
	DefaultProbeHost = "github.com"

	// DefaultProbePort is the TCP port used for the reachability pre-check.
	DefaultProbePort = 443

	// DefaultProbeTimeout bounds the reachability probe only; subsequent
	// downloads and subprocess calls are not time-limited.
	DefaultProbeTimeout = 5 * time.Second

	// MinPythonMajor and MinPythonMinor are the minimum interpreter version
	// the installed bridge application requires on the target host.
	MinPythonMajor = 3
	MinPythonMinor = 10

	// folderPermissions is used when provisioning application folders.
	folderPermissions os.FileMode = 0o755
)

var (
	errNotRoot           = errors.New("this command must be run as root")
	errPythonMissing     = errors.New("python3 interpreter not found")
	errPythonTooOld      = errors.New("python version too old")
	errBadVersionOutput  = errors.New("unrecognized python version output")
	errHostUnreachable   = errors.New("host unreachable")
	errUserCreationTools = errors.New("neither useradd nor adduser is available")
)

// RequireRoot fails when the effective UID is not 0. Both install and
// update run this before any other check.
func RequireRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("%w: %w", errNotRoot, errdefs.ErrPrivilege)
	}

	return nil
}

// CheckPythonVersion verifies the target host carries a python3 recent
// enough to run the bridge application.
func CheckPythonVersion(ctx context.Context) error {
	output, err := exec.CommandContext(ctx, "python3", "--version").Output()
	if err != nil {
		return fmt.Errorf("%w: %w", errPythonMissing, errdefs.ErrEnvironment)
	}

	major, minor, err := parsePythonVersion(string(output))
	if err != nil {
		return fmt.Errorf("%w: %w", err, errdefs.ErrEnvironment)
	}

	if major < MinPythonMajor || (major == MinPythonMajor && minor < MinPythonMinor) {
		return fmt.Errorf("%w: need %d.%d or higher, found %d.%d: %w",
			errPythonTooOld, MinPythonMajor, MinPythonMinor, major, minor, errdefs.ErrEnvironment)
	}

	return nil
}

// parsePythonVersion extracts major and minor from "Python 3.12.1" output.
func parsePythonVersion(output string) (major, minor int, err error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", errBadVersionOutput, output)
	}

	parts := strings.Split(fields[len(fields)-1], ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", errBadVersionOutput, output)
	}

	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errBadVersionOutput, output)
	}

	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errBadVersionOutput, output)
	}

	return major, minor, nil
}

// CheckNetwork probes TCP reachability of host:port within timeout.
// It is a pre-flight check only, not a bound on later operations.
func CheckNetwork(host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errHostUnreachable, address, errdefs.ErrEnvironment)
	}

	return conn.Close()
}

// RunCommand executes a program with arguments, streaming its output to the
// installer's stdout/stderr. No timeout is enforced; package managers and
// pip installs legitimately take minutes.
func RunCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return nil
}

// ChownRecursive hands ownership of path to user (and the same-named
// group), delegating recursion to chown itself.
func ChownRecursive(ctx context.Context, path, user string) error {
	if err := RunCommand(ctx, "chown", "-R", user+":"+user, path); err != nil {
		return fmt.Errorf("change ownership of %s: %w (%w)", path, err, errdefs.ErrFilesystem)
	}

	return nil
}

// EnsureFolders creates each folder and hands it to the service account.
func EnsureFolders(ctx context.Context, folders []string, user string) error {
	logger.Infof(ctx, "Creating required folders: %s", strings.Join(folders, ","))

	for _, path := range folders {
		if err := os.MkdirAll(path, folderPermissions); err != nil {
			return fmt.Errorf("create folder %s: %w (%w)", path, err, errdefs.ErrFilesystem)
		}

		if err := ChownRecursive(ctx, path, user); err != nil {
			return err
		}
	}

	return nil
}

// CommandExists reports whether an executable is on PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
