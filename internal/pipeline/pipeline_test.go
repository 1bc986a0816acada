package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"adforge/internal/compositor"
	"adforge/internal/creative"
	"adforge/internal/ledger"
	"adforge/internal/pipeline"
	"adforge/internal/selection"
	"adforge/internal/services"
)

type fakeSource struct {
	records []selection.Record
	err     error
}

func (f *fakeSource) Records(ctx context.Context) ([]selection.Record, error) {
	return f.records, f.err
}

type fakeLogos struct {
	paths map[string]string
}

func (f *fakeLogos) Path(ctx context.Context, site string) (string, error) {
	path, ok := f.paths[site]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "drive", "find logo", site, nil)
	}
	return path, nil
}

type fakeBuilder struct {
	files    map[string][]creative.File
	err      error
	requests []creative.Request
}

func (f *fakeBuilder) Build(ctx context.Context, req creative.Request) ([]creative.File, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.files[req.Site], nil
}

type fakeUploader struct {
	finalURLs  map[string]string
	resolveErr error
	uploadErr  error
	uploads    []string
}

func (f *fakeUploader) ResolveFinalURL(ctx context.Context, accountID, adGroupID string) (string, error) {
	if f.resolveErr != nil {
		if errors.Is(f.resolveErr, services.ErrUnauthorized) {
			return "", f.resolveErr
		}
		return "", nil
	}
	return f.finalURLs[accountID+"/"+adGroupID], nil
}

func (f *fakeUploader) Upload(ctx context.Context, accountID, adGroupID string, files []creative.File, finalURL string) ([]creative.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	for _, file := range files {
		f.uploads = append(f.uploads, accountID+"/"+adGroupID+"/"+file.Name)
	}
	return files, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	blocked map[string]string
	records []ledger.Upload
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{blocked: make(map[string]string)}
}

func (f *fakeLedger) IsBlocked(ctx context.Context, accountID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocked[accountID]
	return ok, nil
}

func (f *fakeLedger) Block(ctx context.Context, accountID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[accountID] = reason
	return nil
}

func (f *fakeLedger) RecordUpload(ctx context.Context, u ledger.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, u)
	return nil
}

type recordingNotifier struct {
	started   int
	completed int
	blocked   []string
	errors    []string
}

func (r *recordingNotifier) NotifyRunStarted(ctx context.Context, runID string, rows int) error {
	r.started++
	return nil
}

func (r *recordingNotifier) NotifyRunCompleted(ctx context.Context, runID string, processed, uploaded, skipped int, duration time.Duration) error {
	r.completed++
	return nil
}

func (r *recordingNotifier) NotifyAccountBlocked(ctx context.Context, accountID, reason string) error {
	r.blocked = append(r.blocked, accountID)
	return nil
}

func (r *recordingNotifier) NotifyError(ctx context.Context, err error, label string) error {
	r.errors = append(r.errors, label)
	return nil
}

func (r *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

func row(site, account, adGroup, market string) selection.Record {
	return selection.Record{
		Site:         site,
		AccountID:    account,
		AdGroupID:    adGroup,
		CampaignName: site + " " + market,
		Market:       market,
	}
}

func batch(site string, names ...string) []creative.File {
	files := make([]creative.File, 0, len(names))
	for _, name := range names {
		files = append(files, creative.File{
			Path: filepath.Join("/tmp", site, name+".png"),
			Name: name,
			Kind: compositor.KindStatic,
		})
	}
	return files
}

type env struct {
	source   *fakeSource
	logos    *fakeLogos
	builder  *fakeBuilder
	uploader *fakeUploader
	ledger   *fakeLedger
	notifier *recordingNotifier
	pipeline *pipeline.Pipeline
}

func newEnv(t *testing.T, records []selection.Record) *env {
	t.Helper()
	e := &env{
		source: &fakeSource{records: records},
		logos: &fakeLogos{paths: map[string]string{
			"acme":   "/logos/acme.png",
			"globex": "/logos/globex.png",
		}},
		builder: &fakeBuilder{files: map[string][]creative.File{
			"acme":   batch("acme", "0209A", "0209B"),
			"globex": batch("globex", "0209A"),
		}},
		uploader: &fakeUploader{finalURLs: map[string]string{
			"100/10": "https://acme.example",
			"200/20": "https://globex.example",
		}},
		ledger:   newFakeLedger(),
		notifier: &recordingNotifier{},
	}
	e.pipeline = pipeline.New(pipeline.Deps{
		Source:   e.source,
		Logos:    e.logos,
		Builder:  e.builder,
		Uploader: e.uploader,
		Ledger:   e.ledger,
		Notifier: e.notifier,
		LockPath: filepath.Join(t.TempDir(), "run.lock"),
	}, pipeline.WithRunID(func() string { return "run-test" }))
	return e
}

func TestRunProcessesEachAdGroupOnce(t *testing.T) {
	e := newEnv(t, []selection.Record{
		row("acme", "100", "10", "BR"),
		row("globex", "200", "20", "PT"),
		row("acme", "100", "10", "BR"), // duplicate key, dropped
	})

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{Quantity: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-test" {
		t.Errorf("run id = %q", summary.RunID)
	}
	if summary.Rows != 2 || summary.Processed != 2 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Uploaded != 3 {
		t.Errorf("uploaded = %d, want 3", summary.Uploaded)
	}

	if len(e.builder.requests) != 2 {
		t.Fatalf("builder calls = %d, want 2", len(e.builder.requests))
	}
	first := e.builder.requests[0]
	if first.Site != "acme" || first.Locale != "pt-BR" || first.Quantity != 2 ||
		first.LogoPath != "/logos/acme.png" {
		t.Errorf("first build request = %+v", first)
	}
	if e.builder.requests[1].Locale != "pt-PT" {
		t.Errorf("second locale = %q", e.builder.requests[1].Locale)
	}

	if len(e.ledger.records) != 3 {
		t.Fatalf("ledger records = %d, want 3", len(e.ledger.records))
	}
	rec := e.ledger.records[0]
	if rec.RunID != "run-test" || rec.Site != "acme" || rec.CreativeName != "0209A" ||
		rec.FinalURL != "https://acme.example" {
		t.Errorf("ledger record = %+v", rec)
	}

	if e.notifier.started != 1 || e.notifier.completed != 1 {
		t.Errorf("notifier: started=%d completed=%d", e.notifier.started, e.notifier.completed)
	}
}

func TestRunSkipsInvalidAndUnknownRows(t *testing.T) {
	e := newEnv(t, []selection.Record{
		row("acme", "100", "10", "BR"),
		row("acme", "abc", "11", "BR"),    // non-numeric account id
		row("globex", "200", "20", "XX"),  // unknown market
		row("initech", "300", "30", "BR"), // no logo
	})

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{Quantity: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("processed = %d, want 1", summary.Processed)
	}
	if summary.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", summary.Skipped)
	}
}

func TestRunSkipsBlocklistedAccounts(t *testing.T) {
	e := newEnv(t, []selection.Record{
		row("acme", "100", "10", "BR"),
		row("globex", "200", "20", "PT"),
	})
	if err := e.ledger.Block(context.Background(), "100", "authorization rejected"); err != nil {
		t.Fatal(err)
	}

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{Quantity: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 1 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(e.builder.requests) != 1 || e.builder.requests[0].Site != "globex" {
		t.Errorf("builder should only see the unblocked account")
	}
}

func TestRunBlocksAccountOnAuthorizationRejection(t *testing.T) {
	e := newEnv(t, []selection.Record{row("acme", "100", "10", "BR")})
	e.uploader.resolveErr = services.Wrap(services.ErrUnauthorized, "ads", "request", "status 403", nil)

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{Quantity: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if reason, ok := e.ledger.blocked["100"]; !ok || reason == "" {
		t.Fatal("account should land on the blocklist")
	}
	if len(e.notifier.blocked) != 1 || e.notifier.blocked[0] != "100" {
		t.Errorf("blocked notifications = %v", e.notifier.blocked)
	}
}

func TestRunConsultsFinalURLFuncWhenGroupIsEmpty(t *testing.T) {
	e := newEnv(t, []selection.Record{row("acme", "100", "99", "BR")})

	var asked []string
	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{
		Quantity: 1,
		FinalURLFunc: func(site string) string {
			asked = append(asked, site)
			return "https://operator.example"
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(asked) != 1 || asked[0] != "acme" {
		t.Errorf("final url prompts = %v", asked)
	}
	if e.ledger.records[0].FinalURL != "https://operator.example" {
		t.Errorf("recorded final url = %q", e.ledger.records[0].FinalURL)
	}
}

func TestRunSkipsRowWithoutAnyFinalURL(t *testing.T) {
	e := newEnv(t, []selection.Record{row("acme", "100", "99", "BR")})

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{Quantity: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(e.uploader.uploads) != 0 {
		t.Errorf("nothing should upload without a destination URL")
	}
}

func TestRunRefusesConcurrentRuns(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")
	holder := flock.New(lockPath)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	p := pipeline.New(pipeline.Deps{
		Source:   &fakeSource{},
		Logos:    &fakeLogos{},
		Builder:  &fakeBuilder{},
		Uploader: &fakeUploader{},
		Ledger:   newFakeLedger(),
		LockPath: lockPath,
	})

	if _, err := p.Run(context.Background(), pipeline.RunOptions{}); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestRunFailsWhenRowSourceFails(t *testing.T) {
	e := newEnv(t, nil)
	e.source.err = fmt.Errorf("sheet unavailable")

	if _, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{}); err == nil {
		t.Fatal("expected row source failure to abort the run")
	}
	if len(e.notifier.errors) != 1 {
		t.Errorf("error notifications = %v", e.notifier.errors)
	}
}

func TestRunAppliesSelectionCriteria(t *testing.T) {
	e := newEnv(t, []selection.Record{
		row("acme", "100", "10", "BR"),
		row("globex", "200", "20", "PT"),
	})

	summary, err := e.pipeline.Run(context.Background(), pipeline.RunOptions{
		Quantity: 1,
		Criteria: selection.Criteria{Markets: []string{"BR"}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rows != 1 || summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if e.builder.requests[0].Site != "acme" {
		t.Errorf("filtered run should only build acme")
	}
}
