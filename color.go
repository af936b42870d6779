package gfaview

// RGB is a color with float32 components in [0, 1].
type RGB struct {
	R, G, B float32
}

// RGBA is a color with float32 components in [0, 1], non-premultiplied.
type RGBA struct {
	R, G, B, A float32
}

// WithAlpha returns the color with the given alpha.
func (c RGB) WithAlpha(a float32) RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// Bytes returns the color packed as 4 bytes (RGBA, 8 bits per channel).
func (c RGBA) Bytes() [4]byte {
	clamp := func(v float32) byte {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return byte(v*255 + 0.5)
	}
	return [4]byte{clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)}
}

// RGBAFromBytes unpacks a color from 4 bytes (RGBA, 8 bits per channel).
func RGBAFromBytes(b [4]byte) RGBA {
	return RGBA{
		R: float32(b[0]) / 255,
		G: float32(b[1]) / 255,
		B: float32(b[2]) / 255,
		A: float32(b[3]) / 255,
	}
}

// HashColor maps a 64-bit hash to an RGB color with at least one channel
// saturated. Used by overlays that color nodes by the hash of a name or
// sequence: distinct hashes land on visually distinct hues.
func HashColor(hash uint64) RGB {
	r16 := uint16(hash >> 32)
	g16 := uint16(hash >> 16)
	b16 := uint16(hash)

	maxc := r16
	if g16 > maxc {
		maxc = g16
	}
	if b16 > maxc {
		maxc = b16
	}
	if maxc == 0 {
		return RGB{}
	}
	m := float32(maxc)
	return RGB{
		R: float32(r16) / m,
		G: float32(g16) / m,
		B: float32(b16) / m,
	}
}
