package templates

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"

	"adforge/internal/compositor"
	"adforge/internal/services"
)

// All is the sentinel quantity meaning "use every eligible template".
const All = -1

// Asset identifies one template in the remote store.
type Asset struct {
	ID   string
	Name string
	Kind compositor.Kind
}

// Store abstracts the remote template library. Implementations scope all
// folder lookups under a fixed template root.
type Store interface {
	// FindFolder returns the id of the folder with the exact given name
	// directly under the template root, or services.ErrNotFound.
	FindFolder(ctx context.Context, name string) (string, error)
	// ListImages returns the image assets directly under the folder.
	// Non-image children are excluded by the implementation.
	ListImages(ctx context.Context, folderID string) ([]Asset, error)
	// Fetch downloads the raw bytes of one asset.
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Selector resolves and samples eligible templates for a batch.
type Selector struct {
	store  Store
	logger *slog.Logger
	rng    *rand.Rand
}

// Option customizes Selector construction.
type Option func(*Selector)

// WithRand overrides the sampling source, used by tests for determinism.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// NewSelector builds a Selector over the given store.
func NewSelector(store Store, logger *slog.Logger, opts ...Option) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		store:  store,
		logger: logger,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eligible returns the template assets for the given locale. When tag is
// non-empty the folder named exactly tag wins over the locale folder. A
// missing folder yields an empty set and no error; callers log and abort
// the batch rather than falling back to another locale.
func (s *Selector) Eligible(ctx context.Context, locale, tag string) ([]Asset, error) {
	folderName := strings.TrimSpace(locale)
	if trimmed := strings.TrimSpace(tag); trimmed != "" {
		folderName = trimmed
	}
	if folderName == "" {
		return nil, services.Wrap(services.ErrValidation, "templates", "eligible", "no locale or tag given", nil)
	}

	folderID, err := s.store.FindFolder(ctx, folderName)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.logger.Warn("template folder not found", "folder", folderName)
			return nil, nil
		}
		return nil, err
	}

	assets, err := s.store.ListImages(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// FilterByName reduces assets to those whose display name matches one of
// the requested names (case-insensitive, extension ignored on both sides).
// An empty name list keeps everything.
func FilterByName(assets []Asset, names []string) []Asset {
	if len(names) == 0 {
		return assets
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := normalizeName(n)
		if key != "" {
			wanted[key] = struct{}{}
		}
	}
	var out []Asset
	for _, a := range assets {
		if _, ok := wanted[normalizeName(a.Name)]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Sample draws templates for a batch. want == All returns every eligible
// asset in randomized order; otherwise min(len(eligible), want) distinct
// assets are drawn uniformly without replacement. Over-requesting
// truncates silently.
func (s *Selector) Sample(eligible []Asset, want int) []Asset {
	if len(eligible) == 0 {
		return nil
	}
	count := want
	if want == All || want > len(eligible) {
		count = len(eligible)
	}
	if count <= 0 {
		return nil
	}
	perm := s.rng.Perm(len(eligible))
	out := make([]Asset, 0, count)
	for _, idx := range perm[:count] {
		out = append(out, eligible[idx])
	}
	return out
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
