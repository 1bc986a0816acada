package compositor

import (
	"bytes"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"

	"adforge/internal/services"
)

const (
	// Canvas dimensions mandated by the ads platform for image creatives.
	CanvasWidth  = 336
	CanvasHeight = 280

	// Logo overlay size and its inset from the bottom-right canvas edge.
	LogoWidth  = 45
	LogoHeight = 14
	LogoMargin = 10

	// Frame delay applied when the source GIF carries none, in hundredths
	// of a second (100ms).
	defaultFrameDelay = 10
)

// Kind tags a template asset as a static image or a frame sequence. All
// format dispatch happens through this tag; call sites never branch on file
// extensions or mime strings themselves.
type Kind int

const (
	KindStatic Kind = iota
	KindAnimated
)

// String returns the canonical file extension for the kind.
func (k Kind) String() string {
	if k == KindAnimated {
		return ".gif"
	}
	return ".png"
}

// KindForMIME maps a template store mime type to an asset kind. The second
// return reports whether the mime type is eligible at all.
func KindForMIME(mime string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return KindStatic, true
	case "image/gif":
		return KindAnimated, true
	default:
		return KindStatic, false
	}
}

// KindForExt maps a file extension (with leading dot) to an asset kind.
// Anything that is not .gif is treated as static.
func KindForExt(ext string) Kind {
	if strings.EqualFold(strings.TrimSpace(ext), ".gif") {
		return KindAnimated
	}
	return KindStatic
}

// Compositor renders branded creatives at the platform canvas size.
type Compositor struct {
	canvas image.Point
	logo   image.Point
	margin int
}

// New returns a compositor configured for the platform-mandated canvas and
// logo dimensions.
func New() *Compositor {
	return &Compositor{
		canvas: image.Pt(CanvasWidth, CanvasHeight),
		logo:   image.Pt(LogoWidth, LogoHeight),
		margin: LogoMargin,
	}
}

// Composite renders the template with the logo overlay, dispatching on the
// asset kind. The returned bytes are PNG for static assets and GIF for
// frame sequences.
func (c *Compositor) Composite(kind Kind, template, logo []byte) ([]byte, error) {
	if kind == KindAnimated {
		return c.Animated(template, logo)
	}
	return c.Static(template, logo)
}

// Static decodes the template, resizes it to the canvas, pastes the logo at
// the bottom-right inset, and re-encodes as PNG. Re-encoding goes through
// decoded pixels only, so color profiles and text chunks from the source
// never survive.
func (c *Compositor) Static(template, logo []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(template))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "compositor", "static", "decode template", err)
	}
	overlay, err := c.decodeLogo(logo)
	if err != nil {
		return nil, err
	}

	frame := imaging.Resize(img, c.canvas.X, c.canvas.Y, imaging.Lanczos)
	frame = imaging.Overlay(frame, overlay, c.logoOrigin(), 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, services.Wrap(services.ErrDecode, "compositor", "static", "encode png", err)
	}
	return buf.Bytes(), nil
}

// Animated decodes every frame of the source GIF in order, resizes each to
// the canvas, pastes the logo exactly as the static path does, and
// re-assembles the sequence. Per-frame delays and disposal methods carry
// over from the source; missing values fall back to 100ms and
// restore-to-background. The loop count carries over unchanged (0 means
// loop forever).
func (c *Compositor) Animated(template, logo []byte) ([]byte, error) {
	src, err := gif.DecodeAll(bytes.NewReader(template))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "compositor", "animated", "decode gif", err)
	}
	if len(src.Image) == 0 {
		return nil, services.Wrap(services.ErrDecode, "compositor", "animated", "gif has no frames", nil)
	}
	overlay, err := c.decodeLogo(logo)
	if err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, c.canvas.X, c.canvas.Y)
	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(src.Image)),
		Delay:     make([]int, 0, len(src.Image)),
		Disposal:  make([]byte, 0, len(src.Image)),
		LoopCount: src.LoopCount,
		Config:    image.Config{Width: c.canvas.X, Height: c.canvas.Y},
	}

	for i, srcFrame := range src.Image {
		frame := imaging.Resize(srcFrame, c.canvas.X, c.canvas.Y, imaging.Lanczos)
		composed := imaging.Overlay(frame, overlay, c.logoOrigin(), 1.0)

		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, composed, image.Point{})

		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, frameDelay(src.Delay, i))
		out.Disposal = append(out.Disposal, frameDisposal(src.Disposal, i))
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, services.Wrap(services.ErrDecode, "compositor", "animated", "encode gif", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) decodeLogo(logo []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(logo))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "compositor", "logo", "decode logo", err)
	}
	return imaging.Resize(img, c.logo.X, c.logo.Y, imaging.Lanczos), nil
}

func (c *Compositor) logoOrigin() image.Point {
	return image.Pt(
		c.canvas.X-c.logo.X-c.margin,
		c.canvas.Y-c.logo.Y-c.margin,
	)
}

func frameDelay(delays []int, i int) int {
	if i < len(delays) && delays[i] > 0 {
		return delays[i]
	}
	return defaultFrameDelay
}

func frameDisposal(disposals []byte, i int) byte {
	if i < len(disposals) && disposals[i] != 0 {
		return disposals[i]
	}
	return gif.DisposalBackground
}
