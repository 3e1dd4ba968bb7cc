package system

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/mitchellh/go-ps"

	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

// EnsureUser looks up the service account, creating it as a system account
// when missing. Plain useradd is preferred; busybox-based systems (Alpine)
// fall back to addgroup/adduser. The account's home directory is returned.
func EnsureUser(ctx context.Context, name string) (home string, err error) {
	if existing, lookupErr := user.Lookup(name); lookupErr == nil {
		return existing.HomeDir, nil
	}

	logger.Warnf(ctx, "User %s doesn't exist. Creating system account.", name)

	switch {
	case CommandExists("useradd"):
		err = RunCommand(ctx, "useradd",
			"--system", "--create-home", "--user-group",
			"--home-dir", "/home/"+name, "--shell", "/usr/bin/bash", name)
	case CommandExists("adduser"):
		if err = RunCommand(ctx, "addgroup", "-S", name); err != nil {
			break
		}

		err = RunCommand(ctx, "adduser", "-S", "-G", name, "-h", "/home/"+name, "-s", "/bin/ash", name)
	default:
		err = errUserCreationTools
	}

	if err != nil {
		return "", fmt.Errorf("create service account %s: %w", name, err)
	}

	created, err := user.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("look up created account %s: %w", name, err)
	}

	return created.HomeDir, nil
}

// TerminateProcesses kills every running process whose executable name is
// in names, skipping the installer itself. Used before binaries are
// replaced so the new files are not overwriting running images.
func TerminateProcesses(ctx context.Context, names ...string) error {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[name] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := targets[process.Executable()]; !found {
			continue
		}

		logger.InfoKV(ctx, "Stopping process before update", "name", process.Executable(), "pid", process.Pid())

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return fmt.Errorf("find process %d: %w", process.Pid(), err)
		}

		if err = runningProcess.Kill(); err != nil {
			return fmt.Errorf("kill process %d: %w", process.Pid(), err)
		}
	}

	return nil
}
