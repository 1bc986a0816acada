package creative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adforge/internal/compositor"
	"adforge/internal/naming"
	"adforge/internal/services"
	"adforge/internal/templates"
)

// Request describes one creative batch for a (site, locale) pair. Quantity
// is a positive count or templates.All. TemplateNames optionally restricts
// the eligible set to specific templates by display name.
type Request struct {
	Site          string
	Locale        string
	Quantity      int
	LogoPath      string
	TemplateNames []string
	Tag           string
}

// File is one finished creative on disk, bound to exactly one name. Files
// stay on disk after upload; the batch owns them only until then.
type File struct {
	Path string
	Name string
	Kind compositor.Kind
}

// Builder materializes creative batches: it selects templates, composites
// them with the site logo, and writes the results under the output
// directory.
type Builder struct {
	store      templates.Store
	selector   *templates.Selector
	compositor *compositor.Compositor
	outputDir  string
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes Builder construction.
type Option func(*Builder)

// WithNow overrides the clock used for name stamps, for tests.
func WithNow(fn func() time.Time) Option {
	return func(b *Builder) { b.now = fn }
}

// NewBuilder wires a Builder over the template store and compositor.
func NewBuilder(store templates.Store, selector *templates.Selector, comp *compositor.Compositor, outputDir string, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		store:      store,
		selector:   selector,
		compositor: comp,
		outputDir:  outputDir,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the creative files for one request, in name order. An
// empty eligible set yields an empty batch and no error; callers treat
// that as "nothing to upload". A template that fails to download or decode
// is skipped and the batch continues.
func (b *Builder) Build(ctx context.Context, req Request) ([]File, error) {
	logo, err := os.ReadFile(req.LogoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "build", "read logo", req.LogoPath, err)
	}

	eligible, err := b.selector.Eligible(ctx, req.Locale, req.Tag)
	if err != nil {
		return nil, err
	}
	eligible = templates.FilterByName(eligible, req.TemplateNames)
	if len(eligible) == 0 {
		b.logger.Warn("no eligible templates",
			"site", req.Site, "locale", req.Locale, "tag", req.Tag)
		return nil, nil
	}

	sampled := b.selector.Sample(eligible, req.Quantity)
	names := naming.Names(len(sampled), b.now())

	destDir := filepath.Join(b.outputDir, fmt.Sprintf("%s_%s", req.Locale, req.Site))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", destDir, err)
	}

	files := make([]File, 0, len(sampled))
	for i, asset := range sampled {
		file, err := b.buildOne(ctx, destDir, asset, names[i], logo, i)
		if err != nil {
			if errors.Is(err, services.ErrDecode) || errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrPlatform) {
				b.logger.Warn("skipping template",
					"site", req.Site, "template", asset.Name, "error", err)
				continue
			}
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (b *Builder) buildOne(ctx context.Context, destDir string, asset templates.Asset, name string, logo []byte, index int) (File, error) {
	raw, err := b.store.Fetch(ctx, asset.ID)
	if err != nil {
		return File{}, err
	}

	// The downloaded template is staged on disk for the duration of this
	// build step only.
	tempPath := filepath.Join(destDir, fmt.Sprintf("temp_template_%d%s", index, assetExt(asset)))
	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		return File{}, fmt.Errorf("stage template %q: %w", tempPath, err)
	}
	defer os.Remove(tempPath)

	composed, err := b.compositor.Composite(asset.Kind, raw, logo)
	if err != nil {
		return File{}, err
	}

	outPath := filepath.Join(destDir, name+assetExt(asset))
	if err := os.WriteFile(outPath, composed, 0o644); err != nil {
		return File{}, fmt.Errorf("write creative %q: %w", outPath, err)
	}
	return File{Path: outPath, Name: name, Kind: asset.Kind}, nil
}

// assetExt keeps the source template's original extension on the output
// file, falling back to the kind's canonical extension when the display
// name has none.
func assetExt(asset templates.Asset) string {
	if ext := strings.ToLower(filepath.Ext(asset.Name)); ext != "" {
		return ext
	}
	return asset.Kind.String()
}
