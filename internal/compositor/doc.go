// Package compositor renders branded ad creatives from template assets.
//
// Both the static (PNG) and animated (GIF) paths share one contract: the
// output canvas is always the platform-mandated 336x280, the source is
// resized (never cropped) to fit it, and the site logo is pasted at a fixed
// bottom-right inset using its own alpha channel. Animated sources keep
// their frame count, per-frame delays, disposal methods, and loop count.
//
// Undecodable input surfaces as services.ErrDecode so batch builders can
// skip the offending template without aborting the batch.
package compositor
