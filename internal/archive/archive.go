package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

const (
	// BackupFilePermissions keep backup archives readable by root only.
	BackupFilePermissions os.FileMode = 0o600

	// defaultDirPermissions is used for directories the archive does not describe.
	defaultDirPermissions os.FileMode = 0o755
)

var errUnsafePath = errors.New("archive member escapes destination")

// Extract unpacks a gzip-compressed tar archive held in memory into dest.
// When nameFilter is non-empty, only members whose stored path contains it
// are extracted. When stripLeadingSegments is positive, that many leading
// slash-delimited segments are removed from each extracted member's path,
// so nested archive roots land flat at the destination.
//
// A failure mid-extraction leaves a partially populated destination; the
// caller aborts and the operator re-invokes after fixing the cause.
func Extract(ctx context.Context, archive []byte, dest, nameFilter string, stripLeadingSegments int) error {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close() //nolint:errcheck // Read-only stream.

	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar stream: %w", err)
		}

		if nameFilter != "" && !strings.Contains(header.Name, nameFilter) {
			continue
		}

		name := header.Name
		if stripLeadingSegments > 0 {
			name = stripSegments(name, stripLeadingSegments)
		}

		if name == "" {
			continue
		}

		target, err := securePath(dest, name)
		if err != nil {
			return err
		}

		if err = extractMember(tr, header, target); err != nil {
			return fmt.Errorf("extract %s: %w (%w)", header.Name, err, errdefs.ErrFilesystem)
		}

		logger.DebugKV(ctx, "Extracted archive member", "name", header.Name, "target", target)
	}
}

// stripSegments removes the first n slash-delimited segments from name.
func stripSegments(name string, n int) string {
	parts := strings.SplitN(name, "/", n+1)
	return parts[len(parts)-1]
}

// securePath joins dest and name, rejecting members that escape dest.
func securePath(dest, name string) (string, error) {
	cleaned := filepath.Clean(dest)

	// The root destination is already separator-terminated; appending
	// another separator would reject every member.
	prefix := cleaned
	if prefix != string(os.PathSeparator) {
		prefix += string(os.PathSeparator)
	}

	target := filepath.Join(dest, filepath.Clean("/"+name))
	if !strings.HasPrefix(target, prefix) && target != cleaned {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}

	return target, nil
}

// extractMember writes a single archive member to target,
// preserving the permissions stored in the archive.
func extractMember(tr *tar.Reader, header *tar.Header, target string) error {
	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, header.FileInfo().Mode().Perm())
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), defaultDirPermissions); err != nil {
			return err
		}

		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return os.Symlink(header.Linkname, target)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), defaultDirPermissions); err != nil {
			return err
		}

		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, header.FileInfo().Mode().Perm())
		if err != nil {
			return err
		}

		if _, err = io.Copy(out, tr); err != nil { //nolint:gosec // Trusted release artifacts.
			_ = out.Close()
			return err
		}

		return out.Close()
	default:
		// Hard links, devices and the like do not occur in release tarballs.
		return nil
	}
}

// Create writes a gzip-compressed tar archive of sourceDir at archivePath.
// The directory is stored under its own base name so the archive restores
// into a single top-level folder. Permissions on the archive are forced to
// 0600 after creation.
func Create(ctx context.Context, sourceDir, archivePath string) error {
	out, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create backup archive: %w", err)
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	base := filepath.Base(sourceDir)

	walkErr := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}

		header.Name = filepath.ToSlash(filepath.Join(base, rel))

		if err = tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		in, err := os.Open(path) //nolint:gosec // Walking a directory we own.
		if err != nil {
			return err
		}

		_, err = io.Copy(tw, in)
		_ = in.Close()

		return err
	})

	if err = closeAll(walkErr, tw, gz, out); err != nil {
		return fmt.Errorf("write backup archive %s: %w", archivePath, err)
	}

	if err = os.Chmod(archivePath, BackupFilePermissions); err != nil {
		return fmt.Errorf("restrict backup permissions: %w", err)
	}

	logger.InfoKV(ctx, "Backup archive written", "source", sourceDir, "archive", archivePath)

	return nil
}

// closeAll flushes the tar/gzip/file stack, keeping the first error seen.
func closeAll(walkErr error, tw *tar.Writer, gz *gzip.Writer, out *os.File) error {
	err := walkErr

	if closeErr := tw.Close(); err == nil {
		err = closeErr
	}

	if closeErr := gz.Close(); err == nil {
		err = closeErr
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	return err
}
