package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mediaedge/logger"
)

// Local writes uploads below a directory that the HTTP server serves
// directly under /uploads/.
type Local struct {
	baseDir string
}

// NewLocal returns a provider rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

func (p *Local) Name() string { return "local" }

// BaseDir is the directory served to clients.
func (p *Local) BaseDir() string { return p.baseDir }

// Upload writes reader to baseDir/key.
func (p *Local) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	fullPath, err := p.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	logger.Infof("Successfully saved '%s' to '%s'", key, fullPath)
	return nil
}

// pathFor maps key into baseDir, refusing keys that escape it.
func (p *Local) pathFor(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	fullPath := filepath.Join(p.baseDir, clean)
	base := filepath.Clean(p.baseDir)
	if fullPath != base && !strings.HasPrefix(fullPath, base+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes serve directory", key)
	}
	return fullPath, nil
}
