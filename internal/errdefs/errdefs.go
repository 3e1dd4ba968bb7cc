package errdefs

import "errors"

// Failure kinds surfaced by the installer. Every fatal path wraps one of
// these sentinels so callers and tests can assert on the kind with
// errors.Is instead of inspecting process exit codes.
var (
	// ErrNetwork indicates an unreachable host or a non-2xx HTTP status.
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse indicates an undecodable API response body.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotFound indicates a version token that matches no release.
	ErrNotFound = errors.New("release not found")

	// ErrFilesystem indicates a permission, missing-path or extraction failure.
	ErrFilesystem = errors.New("filesystem error")

	// ErrStateConflict indicates an installed version where a clean state
	// was expected, or an installation whose version cannot be determined.
	ErrStateConflict = errors.New("installation state conflict")

	// ErrPrivilege indicates the process is not running as root.
	ErrPrivilege = errors.New("insufficient privileges")

	// ErrEnvironment indicates an unsupported runtime, an unrecognized
	// service manager or a failed reachability probe.
	ErrEnvironment = errors.New("environment not supported")
)
