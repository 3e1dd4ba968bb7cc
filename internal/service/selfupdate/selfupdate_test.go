package selfupdate

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssetPattern(t *testing.T) {
	t.Parallel()

	require.Equal(t, fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH), assetPattern())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1.2.3", normalize("v1.2.3"))
	require.Equal(t, "1.2.3", normalize("1.2.3"))
	require.Empty(t, normalize(""))
}
