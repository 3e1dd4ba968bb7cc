package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeInstallation_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	inst, err := ProbeInstallation(dir)
	require.NoError(t, err)
	require.False(t, inst.Present)
	require.Empty(t, inst.Version)
	require.Equal(t, StateNotInstalled, inst.StateAgainst("2.5.0"))
}

func TestProbeInstallation_MissingVersionMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, entryPointFile), []byte("app"), 0o644))

	inst, err := ProbeInstallation(dir)
	require.NoError(t, err)
	require.True(t, inst.Present)
	require.Empty(t, inst.Version)
	require.Equal(t, StateVersionUnknown, inst.StateAgainst("2.5.0"))
}

func TestProbeInstallation_RecordedVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, entryPointFile), []byte("app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, appEnvFileName),
		[]byte("MTX_TAG=1.9.3\nVERSION=2.5.0\n"), 0o644))

	inst, err := ProbeInstallation(dir)
	require.NoError(t, err)
	require.True(t, inst.Present)
	require.Equal(t, "2.5.0", inst.Version)

	require.Equal(t, StateUpToDate, inst.StateAgainst("2.5.0"))
	require.Equal(t, StateUpToDate, inst.StateAgainst("v2.5.0"))
	require.Equal(t, StateStale, inst.StateAgainst("2.6.0"))
}

func TestVersionsEqual(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		left     string
		right    string
		expected bool
	}{
		{name: "identical", left: "2.5.0", right: "2.5.0", expected: true},
		{name: "tag prefix", left: "v2.5.0", right: "2.5.0", expected: true},
		{name: "different patch", left: "2.5.0", right: "2.5.1", expected: false},
		{name: "not semver but equal", left: "nightly", right: "nightly", expected: true},
		{name: "not semver and different", left: "nightly", right: "2.5.0", expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, versionsEqual(tc.left, tc.right))
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "not installed", StateNotInstalled.String())
	require.Equal(t, "up to date", StateUpToDate.String())
	require.Equal(t, "stale", StateStale.String())
	require.Equal(t, "version unknown", StateVersionUnknown.String())
}
