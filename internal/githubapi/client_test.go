package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
)

// newReleaseServer serves a paginated release list plus a latest endpoint.
// Each inner slice is one page.
func newReleaseServer(t *testing.T, pages [][]apiRelease, latest *apiRelease) *httptest.Server {
	t.Helper()

	var server *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/mrlt8/docker-wyze-bridge/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		require.NotNil(t, latest)
		require.NoError(t, json.NewEncoder(w).Encode(latest))
	})
	mux.HandleFunc("/repos/mrlt8/docker-wyze-bridge/releases", func(w http.ResponseWriter, r *http.Request) {
		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			_, err := fmt.Sscanf(p, "%d", &page)
			require.NoError(t, err)
		}

		require.Less(t, page, len(pages))

		if page < len(pages)-1 {
			w.Header().Set("Link",
				fmt.Sprintf(`<%s/repos/mrlt8/docker-wyze-bridge/releases?page=%d>; rel="next"`, server.URL, page+1))
		}

		require.NoError(t, json.NewEncoder(w).Encode(pages[page]))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func testClient(server *httptest.Server) *Client {
	return NewClient("mrlt8", "docker-wyze-bridge", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

// TestResolveLatest hits the dedicated endpoint without touching pagination.
func TestResolveLatest(t *testing.T) {
	t.Parallel()

	server := newReleaseServer(t, nil, &apiRelease{
		Name:       "v2.10.3",
		TagName:    "v2.10.3",
		TarballURL: "https://example.com/tarball/v2.10.3",
	})

	release, err := testClient(server).Resolve(context.Background(), "latest", "")
	require.NoError(t, err)
	require.Equal(t, "v2.10.3", release.Tag)
	require.Equal(t, "https://example.com/tarball/v2.10.3", release.DownloadURL)
}

// TestResolveAcrossPages matches tags with and without a leading "v" on a
// later page, following the Link header cursor.
func TestResolveAcrossPages(t *testing.T) {
	t.Parallel()

	pages := [][]apiRelease{
		{{Name: "v2.10.3", TagName: "v2.10.3", TarballURL: "https://example.com/t/3"}},
		{{Name: "v2.9.0", TagName: "v2.9.0", TarballURL: "https://example.com/t/2"}},
		{{Name: "old release", TagName: "v2.5.0", TarballURL: "https://example.com/t/1"}},
	}
	server := newReleaseServer(t, pages, nil)

	// Tag without the leading "v".
	release, err := testClient(server).Resolve(context.Background(), "2.5.0", "")
	require.NoError(t, err)
	require.Equal(t, "v2.5.0", release.Tag)

	// Exact tag.
	release, err = testClient(server).Resolve(context.Background(), "v2.9.0", "")
	require.NoError(t, err)
	require.Equal(t, "v2.9.0", release.Tag)

	// Release name.
	release, err = testClient(server).Resolve(context.Background(), "old release", "")
	require.NoError(t, err)
	require.Equal(t, "v2.5.0", release.Tag)
}

// TestResolveNotFound exhausts pagination without a match.
func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	pages := [][]apiRelease{
		{{TagName: "v2.10.3"}},
		{{TagName: "v2.9.0"}},
	}
	server := newReleaseServer(t, pages, nil)

	_, err := testClient(server).Resolve(context.Background(), "9.9.9", "")
	require.ErrorIs(t, err, errdefs.ErrNotFound)
}

// TestResolveAssetSelection picks the first asset containing the pattern,
// and reports NotFound when no asset matches.
func TestResolveAssetSelection(t *testing.T) {
	t.Parallel()

	server := newReleaseServer(t, nil, &apiRelease{
		TagName:    "v1.9.3",
		TarballURL: "https://example.com/tarball",
		Assets: []apiAsset{
			{Name: "mediamtx_v1.9.3_darwin_arm64.tar.gz", BrowserDownloadURL: "https://example.com/darwin"},
			{Name: "mediamtx_v1.9.3_linux_amd64.tar.gz", BrowserDownloadURL: "https://example.com/linux"},
		},
	})

	release, err := testClient(server).Resolve(context.Background(), "latest", "linux_amd64")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/linux", release.DownloadURL)

	_, err = testClient(server).Resolve(context.Background(), "latest", "windows_arm")
	require.ErrorIs(t, err, errdefs.ErrNotFound)
}

// TestResolveMalformedResponse surfaces the raw body on undecodable JSON.
func TestResolveMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(server.Close)

	_, err := testClient(server).Resolve(context.Background(), "latest", "")
	require.ErrorIs(t, err, errdefs.ErrMalformedResponse)
	require.Contains(t, err.Error(), "not json")
}

// TestResolveHTTPError maps non-2xx statuses to the network kind.
func TestResolveHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	_, err := testClient(server).Resolve(context.Background(), "latest", "")
	require.ErrorIs(t, err, errdefs.ErrNetwork)
}

// TestDownload fetches artifact bytes into memory.
func TestDownload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("artifact-bytes"))
	}))
	t.Cleanup(server.Close)

	client := NewClient("mrlt8", "docker-wyze-bridge", WithHTTPClient(server.Client()))

	data, err := client.Download(context.Background(), server.URL+"/artifact")
	require.NoError(t, err)
	require.Equal(t, "artifact-bytes", string(data))
}

// TestNextPageURL parses multi-target Link headers.
func TestNextPageURL(t *testing.T) {
	t.Parallel()

	header := `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=10>; rel="last"`
	require.Equal(t, "https://api.github.com/x?page=2", nextPageURL(header))

	require.Empty(t, nextPageURL(`<https://api.github.com/x?page=10>; rel="last"`))
	require.Empty(t, nextPageURL(""))
}
