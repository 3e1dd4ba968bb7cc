package bridge

import (
	"context"
	"fmt"

	"github.com/GiZZoR/wyze-bridge-installer/internal/archive"
	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
)

// installFFmpeg installs a static ffmpeg build when the host has none.
// The homebridge project archives are rooted at /, so extraction targets
// the filesystem root.
func (r *runner) installFFmpeg(ctx context.Context) error {
	if system.CommandExists("ffmpeg") {
		logger.Info(ctx, "ffmpeg is already installed")
		return nil
	}

	release, err := r.ffmpegClient.Resolve(ctx, "latest", ffmpegAssetPattern)
	if err != nil {
		return fmt.Errorf("resolve ffmpeg release: %w", err)
	}

	logger.InfoKV(ctx, "Installing ffmpeg", "version", release.Tag)

	data, err := r.ffmpegClient.Download(ctx, release.DownloadURL)
	if err != nil {
		return fmt.Errorf("download ffmpeg release: %w", err)
	}

	if err = archive.Extract(ctx, data, "/", "", 0); err != nil {
		return fmt.Errorf("extract ffmpeg release: %w", err)
	}

	if !system.CommandExists("ffmpeg") {
		return fmt.Errorf("%w: ffmpeg is still missing after installation", errdefs.ErrEnvironment)
	}

	return nil
}
