package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"adforge/internal/creative"
	"adforge/internal/ledger"
	"adforge/internal/locale"
	"adforge/internal/notifications"
	"adforge/internal/rows"
	"adforge/internal/selection"
	"adforge/internal/services"
)

// LogoResolver yields the local path of a site logo.
type LogoResolver interface {
	Path(ctx context.Context, site string) (string, error)
}

// CreativeBuilder materializes one creative batch.
type CreativeBuilder interface {
	Build(ctx context.Context, req creative.Request) ([]creative.File, error)
}

// AdUploader resolves destination URLs and submits finished creatives.
type AdUploader interface {
	ResolveFinalURL(ctx context.Context, accountID, adGroupID string) (string, error)
	Upload(ctx context.Context, accountID, adGroupID string, files []creative.File, finalURL string) ([]creative.File, error)
}

// Ledger is the persistence surface the pipeline needs.
type Ledger interface {
	IsBlocked(ctx context.Context, accountID string) (bool, error)
	Block(ctx context.Context, accountID, reason string) error
	RecordUpload(ctx context.Context, u ledger.Upload) error
}

// Deps collects the pipeline collaborators. Logger and Notifier may be
// nil; everything else is required.
type Deps struct {
	Source   rows.Source
	Logos    LogoResolver
	Builder  CreativeBuilder
	Uploader AdUploader
	Ledger   Ledger
	Notifier notifications.Service
	LockPath string
	Logger   *slog.Logger
}

// RunOptions holds the operator-supplied parameters for one run.
type RunOptions struct {
	Criteria      selection.Criteria
	Quantity      int
	TemplateNames []string
	// FinalURLFunc is consulted when an ad group has no enabled ad to
	// borrow a destination URL from. Returning "" skips the row.
	FinalURLFunc func(site string) string
}

// Summary reports what one run did.
type Summary struct {
	RunID     string
	Rows      int
	Processed int
	Uploaded  int
	Skipped   int
	Duration  time.Duration
}

// Pipeline drives a full run: row selection, creative generation, and
// upload, one ad group at a time. Rows never fail the run; only
// configuration errors abort it.
type Pipeline struct {
	deps     Deps
	newRunID func() string
	now      func() time.Time
}

// Option customizes Pipeline construction.
type Option func(*Pipeline)

// WithRunID overrides run id generation, for tests.
func WithRunID(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

// New wires a Pipeline over its collaborators.
func New(deps Deps, opts ...Option) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	p := &Pipeline{
		deps:     deps,
		newRunID: func() string { return uuid.New().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pass over the selected rows. A second concurrent
// run is refused via the lock file.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	lock := flock.New(p.deps.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return Summary{}, fmt.Errorf("another run holds the lock at %s", p.deps.LockPath)
	}
	defer func() { _ = lock.Unlock() }()

	started := p.now()
	runID := p.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := p.deps.Logger.With("run_id", runID)

	records, err := p.deps.Source.Records(ctx)
	if err != nil {
		p.notifyError(ctx, err, "row source")
		return Summary{RunID: runID}, fmt.Errorf("load rows: %w", err)
	}

	result := selection.Select(records, opts.Criteria)
	processed := make(map[selection.Key]struct{}, len(result.Rows))
	selected := selection.Dedup(result.Rows, processed)

	summary := Summary{RunID: runID, Rows: len(selected)}
	logger.Info("run started", "rows", len(selected), "tag", result.Tag)
	if err := p.deps.Notifier.NotifyRunStarted(ctx, runID, len(selected)); err != nil {
		logger.Warn("run started notification failed", "error", err)
	}

	for _, row := range selected {
		uploaded, err := p.processRow(ctx, logger, row, result.Tag, opts)
		if err != nil {
			if !services.Recoverable(err) {
				p.notifyError(ctx, err, "site "+row.Site)
				return summary, err
			}
			logger.Warn("row skipped", "site", row.Site, "account", row.AccountID,
				"ad_group", row.AdGroupID, "error", err)
			summary.Skipped++
			continue
		}
		summary.Processed++
		summary.Uploaded += uploaded
	}

	summary.Duration = p.now().Sub(started)
	logger.Info("run complete",
		"processed", summary.Processed,
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)
	if err := p.deps.Notifier.NotifyRunCompleted(ctx, runID, summary.Processed, summary.Uploaded, summary.Skipped, summary.Duration); err != nil {
		logger.Warn("run completed notification failed", "error", err)
	}
	return summary, nil
}

// processRow handles one ad group end to end and returns the number of
// creatives uploaded for it. Recoverable errors skip the row.
func (p *Pipeline) processRow(ctx context.Context, logger *slog.Logger, row selection.Record, tag string, opts RunOptions) (int, error) {
	ctx = services.WithSite(ctx, row.Site)

	if err := row.Validate(); err != nil {
		return 0, err
	}

	blocked, err := p.deps.Ledger.IsBlocked(ctx, row.AccountID)
	if err != nil {
		return 0, fmt.Errorf("consult blocklist: %w", err)
	}
	if blocked {
		return 0, services.Wrap(services.ErrUnauthorized, "pipeline", "select row",
			fmt.Sprintf("account %s is blocklisted", row.AccountID), nil)
	}

	loc, err := locale.Resolve(row.Market)
	if err != nil {
		return 0, err
	}

	logoPath, err := p.deps.Logos.Path(ctx, row.Site)
	if err != nil {
		return 0, err
	}

	files, err := p.deps.Builder.Build(ctx, creative.Request{
		Site:          row.Site,
		Locale:        loc,
		Quantity:      opts.Quantity,
		LogoPath:      logoPath,
		TemplateNames: opts.TemplateNames,
		Tag:           tag,
	})
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "pipeline", "build creatives",
			"no creatives produced for "+row.Site, nil)
	}

	finalURL, err := p.deps.Uploader.ResolveFinalURL(ctx, row.AccountID, row.AdGroupID)
	if errors.Is(err, services.ErrUnauthorized) {
		p.blockAccount(ctx, logger, row.AccountID, err)
		return 0, err
	}
	if finalURL == "" && opts.FinalURLFunc != nil {
		finalURL = opts.FinalURLFunc(row.Site)
	}
	if finalURL == "" {
		return 0, services.Wrap(services.ErrNotFound, "pipeline", "resolve final url",
			"no destination URL for "+row.Site, nil)
	}

	runID, _ := services.RunIDFromContext(ctx)
	uploaded, uploadErr := p.deps.Uploader.Upload(ctx, row.AccountID, row.AdGroupID, files, finalURL)
	for _, file := range uploaded {
		record := ledger.Upload{
			RunID:        runID,
			Site:         row.Site,
			AccountID:    row.AccountID,
			AdGroupID:    row.AdGroupID,
			CreativeName: file.Name,
			Kind:         file.Kind.String(),
			FinalURL:     finalURL,
		}
		if err := p.deps.Ledger.RecordUpload(ctx, record); err != nil {
			logger.Error("record upload", "creative", file.Name, "error", err)
		}
	}
	if errors.Is(uploadErr, services.ErrUnauthorized) {
		p.blockAccount(ctx, logger, row.AccountID, uploadErr)
		return len(uploaded), uploadErr
	}
	return len(uploaded), nil
}

func (p *Pipeline) blockAccount(ctx context.Context, logger *slog.Logger, accountID string, cause error) {
	reason := "authorization rejected"
	logger.Warn("blocking account", "account", accountID, "error", cause)
	if err := p.deps.Ledger.Block(ctx, accountID, reason); err != nil {
		logger.Error("blocklist update failed", "account", accountID, "error", err)
	}
	if err := p.deps.Notifier.NotifyAccountBlocked(ctx, accountID, reason); err != nil {
		logger.Warn("account blocked notification failed", "account", accountID, "error", err)
	}
}

func (p *Pipeline) notifyError(ctx context.Context, err error, label string) {
	if nerr := p.deps.Notifier.NotifyError(ctx, err, label); nerr != nil {
		p.deps.Logger.Warn("error notification failed", "error", nerr)
	}
}
