package envfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GiZZoR/wyze-bridge-installer/internal/errdefs"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
)

// defaultMode is used when the env file's current mode cannot be determined.
const defaultMode os.FileMode = 0o644

// Upsert rewrites the env file at path so it contains exactly one
// KEY=value line for key. An existing line is replaced in place, keeping
// its position; otherwise the line is appended. All other lines are kept
// as they are. The file must already exist: env files are produced by
// extraction or by explicit creation, never implicitly here.
func Upsert(ctx context.Context, path, key, value string) error {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("env file not found at %s: %w", path, errdefs.ErrFilesystem)
		}

		return fmt.Errorf("read env file %s: %w", path, err)
	}

	var (
		prefix   = key + "="
		newLine  = prefix + value
		replaced = false
		lines    = splitLines(string(contents))
		result   = make([]string, 0, len(lines)+1)
	)

	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			result = append(result, line)
			continue
		}

		// Later duplicates are dropped so that at most one line per key
		// remains after the rewrite.
		if replaced {
			continue
		}

		if old := strings.TrimSpace(strings.TrimPrefix(line, prefix)); old != value {
			logger.Infof(ctx, "Updating %s: %s from: %s to: %s", path, key, old, value)
		}

		result = append(result, newLine)
		replaced = true
	}

	if !replaced {
		result = append(result, newLine)
	}

	mode := defaultMode
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	output := strings.Join(result, "\n") + "\n"
	if err = os.WriteFile(path, []byte(output), mode); err != nil {
		return fmt.Errorf("write env file %s: %w", path, err)
	}

	return nil
}

// Value returns the value of key in the env file at path. A missing file
// or a missing line both report found=false: callers treat either as an
// absent marker, not an error.
func Value(path, key string) (value string, found bool, err error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("read env file %s: %w", path, err)
	}

	prefix := key + "="
	for _, line := range splitLines(string(contents)) {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true, nil
		}
	}

	return "", false, nil
}

// splitLines breaks file contents into lines without terminators.
// An empty file yields no lines rather than a single empty one.
func splitLines(contents string) []string {
	trimmed := strings.TrimRight(contents, "\n")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}
