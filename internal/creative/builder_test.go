package creative_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"adforge/internal/compositor"
	"adforge/internal/creative"
	"adforge/internal/services"
	"adforge/internal/templates"
	"adforge/internal/testsupport"
)

var buildDate = time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)

func newBuilder(t *testing.T, store *testsupport.TemplateStore) (*creative.Builder, string) {
	t.Helper()
	outputDir := t.TempDir()
	selector := templates.NewSelector(store, nil, templates.WithRand(rand.New(rand.NewPCG(3, 5))))
	builder := creative.NewBuilder(store, selector, compositor.New(), outputDir, nil,
		creative.WithNow(func() time.Time { return buildDate }))
	return builder, outputDir
}

func writeLogo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acme.png")
	if err := os.WriteFile(path, testsupport.PNG(t, 30, 10, color.NRGBA{G: 220, A: 255}), 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}
	return path
}

func seedStore(t *testing.T) *testsupport.TemplateStore {
	t.Helper()
	store := testsupport.NewTemplateStore()
	fill := color.NRGBA{R: 180, G: 40, B: 40, A: 255}
	assets := make([]templates.Asset, 0, 5)
	for _, name := range []string{"beach.png", "city.png", "mountain.png", "river.png"} {
		id := "id-" + name
		assets = append(assets, templates.Asset{ID: id, Name: name, Kind: compositor.KindStatic})
		store.Blobs[id] = testsupport.PNG(t, 60, 50, fill)
	}
	assets = append(assets, templates.Asset{ID: "id-loop.gif", Name: "loop.gif", Kind: compositor.KindAnimated})
	store.Blobs["id-loop.gif"] = testsupport.GIF(t, 60, 50, 0,
		testsupport.GIFFrame{Fill: fill, Delay: 20},
		testsupport.GIFFrame{Fill: fill, Delay: 20},
	)
	store.AddFolder("pt-BR", "folder-br", assets...)
	return store
}

func TestBuildProducesNamedBatch(t *testing.T) {
	builder, _ := newBuilder(t, seedStore(t))
	files, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: 3,
		LogoPath: writeLogo(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	for i, want := range []string{"0209A", "0209B", "0209C"} {
		if files[i].Name != want {
			t.Errorf("file %d name = %q, want %q", i, files[i].Name, want)
		}
		if !strings.Contains(files[i].Path, filepath.Join("pt-BR_acme")) {
			t.Errorf("file %d path %q missing locale_site directory", i, files[i].Path)
		}
		if _, err := os.Stat(files[i].Path); err != nil {
			t.Errorf("file %d missing on disk: %v", i, err)
		}
	}
}

func TestBuildStaticOutputIsCanvasSized(t *testing.T) {
	builder, _ := newBuilder(t, seedStore(t))
	files, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: 2,
		LogoPath: writeLogo(t),
		// Pin to static templates so the PNG decode below is valid.
		TemplateNames: []string{"beach", "city"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, f := range files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatalf("read %s: %v", f.Path, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("decode %s: %v", f.Path, err)
		}
		if img.Bounds().Dx() != compositor.CanvasWidth || img.Bounds().Dy() != compositor.CanvasHeight {
			t.Errorf("%s is %v, want canvas size", f.Path, img.Bounds())
		}
	}
}

func TestBuildAllConsumesEveryTemplate(t *testing.T) {
	builder, _ := newBuilder(t, seedStore(t))
	files, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: templates.All,
		LogoPath: writeLogo(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("got %d files, want all 5", len(files))
	}
	exts := map[string]int{}
	for _, f := range files {
		exts[filepath.Ext(f.Path)]++
	}
	if exts[".png"] != 4 || exts[".gif"] != 1 {
		t.Errorf("extension split = %v, want 4 png + 1 gif", exts)
	}
}

func TestBuildMissingFolderYieldsEmptyBatch(t *testing.T) {
	builder, _ := newBuilder(t, seedStore(t))
	files, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "de-DE",
		Quantity: 3,
		LogoPath: writeLogo(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty batch, got %v", files)
	}
}

func TestBuildSkipsUndecodableTemplate(t *testing.T) {
	store := seedStore(t)
	store.Blobs["id-beach.png"] = []byte("corrupt bytes")
	builder, _ := newBuilder(t, store)

	files, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: templates.All,
		LogoPath: writeLogo(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("got %d files, want 4 (one skipped)", len(files))
	}
}

func TestBuildRemovesStagedTemplates(t *testing.T) {
	builder, outputDir := newBuilder(t, seedStore(t))
	_, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: 2,
		LogoPath: writeLogo(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var leftovers []string
	filepath.WalkDir(outputDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasPrefix(d.Name(), "temp_template_") {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	sort.Strings(leftovers)
	if len(leftovers) != 0 {
		t.Errorf("staged templates left behind: %v", leftovers)
	}
}

func TestBuildMissingLogo(t *testing.T) {
	builder, _ := newBuilder(t, seedStore(t))
	_, err := builder.Build(context.Background(), creative.Request{
		Site:     "acme",
		Locale:   "pt-BR",
		Quantity: 1,
		LogoPath: filepath.Join(t.TempDir(), "absent.png"),
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
