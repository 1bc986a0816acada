package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogoSource locates and downloads site logos.
type LogoSource interface {
	FindLogo(ctx context.Context, site string) (string, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// LogoCache mirrors site logos into a local directory so repeated runs
// for the same site skip the download. Cached logos are never refreshed
// automatically; delete the file to pick up a new logo.
type LogoCache struct {
	dir    string
	source LogoSource
	logger *slog.Logger
}

// NewLogoCache builds a cache rooted at dir.
func NewLogoCache(dir string, source LogoSource, logger *slog.Logger) *LogoCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogoCache{dir: dir, source: source, logger: logger}
}

// Path returns the local path of the site logo, downloading it on the
// first request.
func (c *LogoCache) Path(ctx context.Context, site string) (string, error) {
	site = strings.ToLower(strings.TrimSpace(site))
	if site == "" {
		return "", fmt.Errorf("empty site name")
	}

	local := filepath.Join(c.dir, site+".png")
	if _, err := os.Stat(local); err == nil {
		c.logger.Debug("logo cache hit", "site", site, "path", local)
		return local, nil
	}

	id, err := c.source.FindLogo(ctx, site)
	if err != nil {
		return "", err
	}
	data, err := c.source.Fetch(ctx, id)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create logo directory: %w", err)
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", fmt.Errorf("write logo %s: %w", local, err)
	}
	c.logger.Info("logo cached", "site", site, "path", local, "bytes", len(data))
	return local, nil
}
