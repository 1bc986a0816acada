package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"testing"
)

// PNG returns an encoded PNG of the given size filled with the fill color.
func PNG(t testing.TB, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

// GIFFrame describes one frame of a fixture GIF.
type GIFFrame struct {
	Fill     color.Color
	Delay    int
	Disposal byte
}

// GIF returns an encoded GIF with one solid-color frame per entry. A zero
// LoopCount loops forever, matching the wire format default.
func GIF(t testing.TB, width, height int, loopCount int, frames ...GIFFrame) []byte {
	t.Helper()
	if len(frames) == 0 {
		t.Fatal("GIF fixture needs at least one frame")
	}
	out := &gif.GIF{LoopCount: loopCount}
	bounds := image.Rect(0, 0, width, height)
	for _, f := range frames {
		img := image.NewPaletted(bounds, palette.Plan9)
		idx := uint8(img.Palette.Index(f.Fill))
		for i := range img.Pix {
			img.Pix[i] = idx
		}
		out.Image = append(out.Image, img)
		out.Delay = append(out.Delay, f.Delay)
		out.Disposal = append(out.Disposal, f.Disposal)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		t.Fatalf("encode fixture gif: %v", err)
	}
	return buf.Bytes()
}
