package discord

import "math"

// gradientBlue is the fixed blue component of every gradient color
const gradientBlue = 0x11

// Gradient maps normalized weight w to a red-to-green color.
// w outside of [0,1] is clamped, NaN is treated as 0.
func Gradient(w float64) (r, g, b int) {
	switch {
	case math.IsNaN(w) || w < 0:
		w = 0
	case w > 1:
		w = 1
	}
	return int(255 * (1 - w)), int(255 * w), gradientBlue
}

// PackColor packs color components into an embed color value.
// The legacy packing (standard=false) uses 255 as the byte multiplier, the way
// the deployed bot always did, standard packing is regular 24-bit RGB.
func PackColor(r, g, b int, standard bool) int {
	if standard {
		return r<<16 | g<<8 | b
	}
	return r*255*255 + g*255 + b
}

// Color returns packed gradient color for normalized weight w
func Color(w float64, standard bool) int {
	r, g, b := Gradient(w)
	return PackColor(r, g, b, standard)
}
