// Package svc detects the host's service manager (systemd or OpenRC),
// renders the bridge's service definition from typed templates and
// registers it through the manager's control binaries.
package svc
