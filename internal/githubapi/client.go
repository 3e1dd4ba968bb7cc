package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

const (
	// DefaultBaseURL is the GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// maxDiagnosticBody bounds how much of an undecodable response body is
	// surfaced in error messages.
	maxDiagnosticBody = 2048
)

// Client queries one repository's releases. It performs no retries: every
// failure aborts the invocation and the operator re-invokes after fixing
// the cause.
type Client struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient returns a release client for owner/repo.
func NewClient(owner, repo string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		owner:      owner,
		repo:       repo,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Release is the resolver's result: the matched tag and the URL of the
// artifact to download.
type Release struct {
	// Tag is the release's tag name, e.g. "v2.5.0".
	Tag string
	// DownloadURL points at the selected asset or the source tarball.
	DownloadURL string
}

// apiRelease mirrors the fields of the GitHub release object the resolver needs.
type apiRelease struct {
	Name       string     `json:"name"`
	TagName    string     `json:"tag_name"`
	TarballURL string     `json:"tarball_url"`
	Assets     []apiAsset `json:"assets"`
}

type apiAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Resolve finds the release matching the requested version token and picks
// its download URL. "latest" hits the dedicated endpoint directly; any
// other token walks the paginated release list and matches the release
// name or the tag name, with and without a leading "v". When assetPattern
// is non-empty, the first asset whose name contains it is selected;
// otherwise the source tarball URL is returned.
func (c *Client) Resolve(ctx context.Context, version, assetPattern string) (*Release, error) {
	if version == "latest" {
		return c.resolveLatest(ctx, assetPattern)
	}

	return c.resolveByToken(ctx, version, assetPattern)
}

func (c *Client) resolveLatest(ctx context.Context, assetPattern string) (*Release, error) {
	var release apiRelease
	if _, err := c.getJSON(ctx, c.repoURL("/releases/latest"), &release); err != nil {
		return nil, err
	}

	return c.selectArtifact(&release, assetPattern)
}

func (c *Client) resolveByToken(ctx context.Context, version, assetPattern string) (*Release, error) {
	pageURL := c.repoURL("/releases")

	for pageURL != "" {
		var (
			releases []apiRelease
			header   http.Header
			err      error
		)

		if header, err = c.getJSON(ctx, pageURL, &releases); err != nil {
			return nil, err
		}

		for i := range releases {
			release := &releases[i]
			if releaseMatches(release, version) {
				logger.DebugKV(ctx, "Found release", "repo", c.repo, "name", release.Name, "tag", release.TagName)
				return c.selectArtifact(release, assetPattern)
			}
		}

		pageURL = nextPageURL(header.Get("Link"))
	}

	return nil, fmt.Errorf("[%s] unable to locate release %q: %w", c.repo, version, errdefs.ErrNotFound)
}

// releaseMatches reports whether a release satisfies the version token:
// an exact release name match, or a tag match with or without a leading "v".
func releaseMatches(release *apiRelease, version string) bool {
	return release.Name == version ||
		release.TagName == version ||
		release.TagName == "v"+version
}

// selectArtifact picks the asset matching the pattern, or the source tarball.
func (c *Client) selectArtifact(release *apiRelease, assetPattern string) (*Release, error) {
	if assetPattern != "" {
		for _, asset := range release.Assets {
			if strings.Contains(asset.Name, assetPattern) {
				return &Release{Tag: release.TagName, DownloadURL: asset.BrowserDownloadURL}, nil
			}
		}

		return nil, fmt.Errorf("[%s] release %s has no asset matching %q: %w",
			c.repo, release.TagName, assetPattern, errdefs.ErrNotFound)
	}

	return &Release{Tag: release.TagName, DownloadURL: release.TarballURL}, nil
}

// Download fetches a release artifact into memory.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	response, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("[%s] read download body: %w (%w)", c.repo, err, errdefs.ErrNetwork)
	}

	return data, nil
}

// getJSON fetches a URL and decodes the JSON body into out. On an
// undecodable body the raw content is surfaced for diagnosis.
func (c *Client) getJSON(ctx context.Context, url string, out any) (http.Header, error) {
	response, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("[%s] read response body: %w (%w)", c.repo, err, errdefs.ErrNetwork)
	}

	if err = json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("[%s] decode response from %s: %v, body: %s: %w",
			c.repo, url, err, truncate(body), errdefs.ErrMalformedResponse)
	}

	return response.Header, nil
}

// get performs one GET and maps transport and status failures to ErrNetwork.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("[%s] build request: %w", c.repo, err)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[%s] %s: %w (%w)", c.repo, url, err, errdefs.ErrNetwork)
	}

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		_ = response.Body.Close()

		return nil, fmt.Errorf("[%s] %s returned %s: %s: %w",
			c.repo, url, response.Status, truncate(body), errdefs.ErrNetwork)
	}

	return response, nil
}

func (c *Client) repoURL(suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", c.baseURL, c.owner, c.repo, suffix)
}

// nextPageURL extracts the rel="next" target from a Link header,
// returning "" when pagination ends.
func nextPageURL(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}

		if strings.TrimSpace(section[1]) == `rel="next"` {
			return strings.Trim(strings.TrimSpace(section[0]), "<>")
		}
	}

	return ""
}

func truncate(body []byte) string {
	if len(body) > maxDiagnosticBody {
		return string(body[:maxDiagnosticBody]) + "..."
	}

	return string(body)
}
