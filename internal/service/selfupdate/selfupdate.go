package selfupdate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/GiZZoR/wyze-bridge-installer/internal/githubapi"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/version"
)

const (
	// installerOwner and installerRepo point at this project's own releases.
	installerOwner = "GiZZoR"
	installerRepo  = "wyze-bridge-installer"
)

// Options are inputs accepted by the self-update entry point.
type Options struct {
	// Client overrides the release client, used by tests. Nil selects
	// the installer's own repository.
	Client *githubapi.Client
}

// Run replaces the running installer binary with the latest released
// build for this platform. An already current binary is left alone.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "self-update")

	if opts == nil {
		opts = &Options{}
	}

	client := opts.Client
	if client == nil {
		client = githubapi.NewClient(installerOwner, installerRepo)
	}

	release, err := client.Resolve(ctx, "latest", assetPattern())
	if err != nil {
		return fmt.Errorf("resolve installer release: %w", err)
	}

	target := normalize(release.Tag)
	current := version.Short()

	if target == current {
		logger.InfoKV(ctx, "Installer is already up to date", "version", current)
		return nil
	}

	logger.InfoKV(ctx, "Updating the installer", "installed", current, "target", target)

	data, err := client.Download(ctx, release.DownloadURL)
	if err != nil {
		return fmt.Errorf("download installer release: %w", err)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate running executable: %w", err)
	}

	options := goupdate.Options{
		TargetPath: executable,
		TargetMode: 0o755,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	logger.InfoKV(ctx, "Installer updated", "version", target)

	return nil
}

// assetPattern selects the release asset built for the running platform,
// e.g. "linux_amd64".
func assetPattern() string {
	return fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH)
}

// normalize strips the leading "v" release tags carry.
func normalize(tag string) string {
	if len(tag) > 0 && tag[0] == 'v' {
		return tag[1:]
	}

	return tag
}
