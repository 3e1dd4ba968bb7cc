package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
)

func TestParseMediaMTXVersion(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		output   string
		expected string
	}{
		{name: "typical", output: "mediamtx v1.9.3\n", expected: "1.9.3"},
		{name: "bare version", output: "v1.9.3", expected: "1.9.3"},
		{name: "no prefix", output: "1.9.3", expected: "1.9.3"},
		{name: "empty", output: "", expected: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, parseMediaMTXVersion(tc.output))
		})
	}
}

func TestLocalMediaMTXVersion_MissingBinary(t *testing.T) {
	t.Parallel()

	binary := filepath.Join(t.TempDir(), "mediamtx")
	require.Empty(t, localMediaMTXVersion(context.Background(), binary))
}

func TestPatchRelayPath(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()

	source := filepath.Join(appPath, relaySourceFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o755))

	contents := `MTX_PATH = "/app/mediamtx"` + "\n"
	require.NoError(t, os.WriteFile(source, []byte(contents), 0o644))

	r := &runner{
		cfg: &config.Config{
			AppPath:      appPath,
			MediaMTXPath: "/srv/mediamtx",
		},
	}

	require.NoError(t, r.patchRelayPath(context.Background()))

	patched, err := os.ReadFile(source)
	require.NoError(t, err)
	require.Equal(t, `MTX_PATH = "/srv/mediamtx/mediamtx"`+"\n", string(patched))

	// A second run leaves the already patched file untouched.
	require.NoError(t, r.patchRelayPath(context.Background()))

	again, err := os.ReadFile(source)
	require.NoError(t, err)
	require.Equal(t, string(patched), string(again))
}

func TestPatchRelayPath_MissingSource(t *testing.T) {
	t.Parallel()

	r := &runner{
		cfg: &config.Config{
			AppPath:      t.TempDir(),
			MediaMTXPath: "/srv/mediamtx",
		},
	}

	require.NoError(t, r.patchRelayPath(context.Background()))
}
