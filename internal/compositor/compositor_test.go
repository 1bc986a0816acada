package compositor_test

import (
	"bytes"
	"errors"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"adforge/internal/compositor"
	"adforge/internal/services"
	"adforge/internal/testsupport"
)

var (
	templateFill = color.NRGBA{R: 200, G: 30, B: 30, A: 255}
	logoFill     = color.NRGBA{R: 20, G: 220, B: 20, A: 255}
)

func TestStaticResizesToCanvas(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"smaller than canvas", 50, 40},
		{"exact canvas", 336, 280},
		{"larger than canvas", 800, 600},
		{"different aspect", 100, 400},
	}
	comp := compositor.New()
	logo := testsupport.PNG(t, 30, 10, logoFill)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			template := testsupport.PNG(t, tt.width, tt.height, templateFill)
			out, err := comp.Static(template, logo)
			if err != nil {
				t.Fatalf("Static: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != compositor.CanvasWidth || b.Dy() != compositor.CanvasHeight {
				t.Errorf("output %dx%d, want %dx%d", b.Dx(), b.Dy(), compositor.CanvasWidth, compositor.CanvasHeight)
			}
		})
	}
}

func TestStaticPastesLogoBottomRight(t *testing.T) {
	comp := compositor.New()
	template := testsupport.PNG(t, 336, 280, templateFill)
	logo := testsupport.PNG(t, 30, 10, logoFill)

	out, err := comp.Static(template, logo)
	if err != nil {
		t.Fatalf("Static: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	// Center of the logo region: origin (281, 256), size 45x14.
	r, g, _, _ := img.At(303, 263).RGBA()
	if g <= r {
		t.Errorf("expected logo green at (303,263), got r=%d g=%d", r, g)
	}
	// Far corner outside the logo region stays template-colored.
	r, g, _, _ = img.At(10, 10).RGBA()
	if r <= g {
		t.Errorf("expected template red at (10,10), got r=%d g=%d", r, g)
	}
}

func TestStaticDecodeFailure(t *testing.T) {
	comp := compositor.New()
	logo := testsupport.PNG(t, 30, 10, logoFill)
	if _, err := comp.Static([]byte("not an image"), logo); !errors.Is(err, services.ErrDecode) {
		t.Errorf("template decode error = %v, want ErrDecode", err)
	}
	template := testsupport.PNG(t, 50, 40, templateFill)
	if _, err := comp.Static(template, []byte("not a logo")); !errors.Is(err, services.ErrDecode) {
		t.Errorf("logo decode error = %v, want ErrDecode", err)
	}
}

func TestAnimatedPreservesFrameTiming(t *testing.T) {
	comp := compositor.New()
	logo := testsupport.PNG(t, 30, 10, logoFill)
	template := testsupport.GIF(t, 120, 90, 2,
		testsupport.GIFFrame{Fill: templateFill, Delay: 50, Disposal: gif.DisposalNone},
		testsupport.GIFFrame{Fill: color.NRGBA{R: 30, G: 30, B: 200, A: 255}, Delay: 0, Disposal: 0},
		testsupport.GIFFrame{Fill: templateFill, Delay: 70, Disposal: gif.DisposalPrevious},
	)

	out, err := comp.Animated(template, logo)
	if err != nil {
		t.Fatalf("Animated: %v", err)
	}
	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	if len(decoded.Image) != 3 {
		t.Fatalf("frame count = %d, want 3", len(decoded.Image))
	}
	if decoded.LoopCount != 2 {
		t.Errorf("loop count = %d, want 2", decoded.LoopCount)
	}
	wantDelays := []int{50, 10, 70}
	for i, want := range wantDelays {
		if decoded.Delay[i] != want {
			t.Errorf("frame %d delay = %d, want %d", i, decoded.Delay[i], want)
		}
	}
	wantDisposal := []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalPrevious}
	for i, want := range wantDisposal {
		if decoded.Disposal[i] != want {
			t.Errorf("frame %d disposal = %d, want %d", i, decoded.Disposal[i], want)
		}
	}
	for i, frame := range decoded.Image {
		b := frame.Bounds()
		if b.Dx() != compositor.CanvasWidth || b.Dy() != compositor.CanvasHeight {
			t.Errorf("frame %d is %dx%d, want canvas size", i, b.Dx(), b.Dy())
		}
	}
}

func TestAnimatedDecodeFailure(t *testing.T) {
	comp := compositor.New()
	logo := testsupport.PNG(t, 30, 10, logoFill)
	if _, err := comp.Animated([]byte("GIF89a garbage"), logo); !errors.Is(err, services.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestKindForMIME(t *testing.T) {
	tests := []struct {
		mime     string
		kind     compositor.Kind
		eligible bool
	}{
		{"image/png", compositor.KindStatic, true},
		{"IMAGE/PNG", compositor.KindStatic, true},
		{"image/gif", compositor.KindAnimated, true},
		{"application/vnd.google-apps.folder", compositor.KindStatic, false},
		{"image/jpeg", compositor.KindStatic, false},
		{"", compositor.KindStatic, false},
	}
	for _, tt := range tests {
		kind, ok := compositor.KindForMIME(tt.mime)
		if kind != tt.kind || ok != tt.eligible {
			t.Errorf("KindForMIME(%q) = (%v, %v), want (%v, %v)", tt.mime, kind, ok, tt.kind, tt.eligible)
		}
	}
}

func TestKindForExt(t *testing.T) {
	if compositor.KindForExt(".gif") != compositor.KindAnimated {
		t.Error("expected .gif to map to KindAnimated")
	}
	if compositor.KindForExt(".GIF") != compositor.KindAnimated {
		t.Error("expected .GIF to map to KindAnimated")
	}
	if compositor.KindForExt(".png") != compositor.KindStatic {
		t.Error("expected .png to map to KindStatic")
	}
	if compositor.KindForExt("") != compositor.KindStatic {
		t.Error("expected empty extension to map to KindStatic")
	}
}
