package system

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParsePythonVersion covers typical and malformed interpreter banners.
func TestParsePythonVersion(t *testing.T) {
	t.Parallel()

	major, minor, err := parsePythonVersion("Python 3.12.1\n")
	require.NoError(t, err)
	require.Equal(t, 3, major)
	require.Equal(t, 12, minor)

	major, minor, err = parsePythonVersion("Python 3.10")
	require.NoError(t, err)
	require.Equal(t, 3, major)
	require.Equal(t, 10, minor)

	for _, bad := range []string{"", "Python", "Python three.ten", "Python 3"} {
		_, _, err = parsePythonVersion(bad)
		require.Error(t, err, bad)
	}
}

// TestCheckNetwork probes a local listener and a closed port.
func TestCheckNetwork(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, CheckNetwork("127.0.0.1", port, time.Second))

	require.NoError(t, listener.Close())
	require.Error(t, CheckNetwork("127.0.0.1", port, 200*time.Millisecond))
}
