package svc

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

// Manager identifies the service manager found on the host. It is decided
// once at startup and threaded explicitly to every consumer; nothing in
// this package keeps detection state.
type Manager string

const (
	// Systemd hosts are managed through systemctl.
	Systemd Manager = "systemd"
	// OpenRC hosts are managed through rc-update and rc-service.
	OpenRC Manager = "openrc"
)

// ServiceName is the unit name the bridge runs under.
const ServiceName = "wyze-bridge"

// Control binaries are probed at fixed, non-configurable paths.
const (
	systemctlPath = "/usr/bin/systemctl"
	rcUpdatePath  = "/sbin/rc-update"
)

var errNoServiceManager = errors.New("unable to identify system service manager (systemd/openrc)")

// Detect probes for known control binaries and returns the platform's
// service manager. Neither being present is fatal for install and update.
func Detect() (Manager, error) {
	return detectAt(systemctlPath, rcUpdatePath)
}

func detectAt(systemctl, rcUpdate string) (Manager, error) {
	if info, err := os.Stat(systemctl); err == nil && !info.IsDir() {
		return Systemd, nil
	}

	if info, err := os.Stat(rcUpdate); err == nil && !info.IsDir() {
		return OpenRC, nil
	}

	return "", fmt.Errorf("%w: %w", errNoServiceManager, errdefs.ErrEnvironment)
}

// UnitPath returns where the rendered service definition lives.
func (m Manager) UnitPath() string {
	if m == OpenRC {
		return "/etc/init.d/" + ServiceName
	}

	return "/etc/systemd/system/" + ServiceName + ".service"
}

// Register makes the freshly written unit known to the service manager and
// enables it. On OpenRC the service is also started, matching the
// historical installer behavior.
func (m Manager) Register(ctx context.Context) error {
	if m == OpenRC {
		if err := system.RunCommand(ctx, "rc-update", "add", ServiceName, "default"); err != nil {
			return err
		}

		return system.RunCommand(ctx, "rc-service", ServiceName, "start")
	}

	if err := system.RunCommand(ctx, "systemctl", "daemon-reload"); err != nil {
		return err
	}

	return system.RunCommand(ctx, "systemctl", "enable", ServiceName+".service")
}

// Restart bounces the bridge service.
func (m Manager) Restart(ctx context.Context) error {
	if m == OpenRC {
		return system.RunCommand(ctx, "rc-service", ServiceName, "restart")
	}

	return system.RunCommand(ctx, "systemctl", "restart", ServiceName)
}
