//go:build !nogpu

package gpu

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	gfaview "github.com/gfaview/gfaview"
)

const (
	atlasCols     = 16
	atlasRows     = 6
	atlasFirstChr = ' '
	atlasLastChr  = '~'
)

// GlyphUV locates one glyph inside the atlas texture.
type GlyphUV struct {
	Min gfaview.Point
	Max gfaview.Point
}

// FontAtlas is a fixed-grid bitmap atlas over the printable ASCII
// range, rasterized once from the built-in 7x13 face. The version
// counter lets the pipeline skip redundant uploads.
type FontAtlas struct {
	img     *image.RGBA
	size    uint32
	cellW   int
	cellH   int
	ascent  int
	version uint64
	glyphs  [atlasLastChr - atlasFirstChr + 1]GlyphUV
	whiteUV gfaview.Point
}

// NewFontAtlas rasterizes the ASCII glyph grid.
func NewFontAtlas() *FontAtlas {
	face := basicfont.Face7x13
	a := &FontAtlas{
		cellW:   face.Advance + 1,
		cellH:   face.Height + 3,
		ascent:  face.Ascent,
		version: 1,
	}

	side := 1
	for side < atlasCols*a.cellW || side < atlasRows*a.cellH {
		side *= 2
	}
	a.size = uint32(side)
	a.img = image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(a.img, a.img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  a.img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	inv := 1 / float32(side)

	// The cell after the last glyph is painted solid white; solid GUI
	// geometry points its UVs there.
	whiteIdx := int(atlasLastChr-atlasFirstChr) + 1
	wx := (whiteIdx % atlasCols) * a.cellW
	wy := (whiteIdx / atlasCols) * a.cellH
	draw.Draw(a.img, image.Rect(wx, wy, wx+a.cellW, wy+a.cellH),
		image.NewUniform(color.White), image.Point{}, draw.Src)
	a.whiteUV = gfaview.Point{
		X: (float32(wx) + float32(a.cellW)/2) * inv,
		Y: (float32(wy) + float32(a.cellH)/2) * inv,
	}

	for ch := atlasFirstChr; ch <= atlasLastChr; ch++ {
		idx := int(ch - atlasFirstChr)
		cx := (idx % atlasCols) * a.cellW
		cy := (idx / atlasCols) * a.cellH
		d.Dot = fixed.P(cx, cy+a.ascent)
		d.DrawString(string(rune(ch)))

		a.glyphs[idx] = GlyphUV{
			Min: gfaview.Point{X: float32(cx) * inv, Y: float32(cy) * inv},
			Max: gfaview.Point{
				X: float32(cx+a.cellW) * inv,
				Y: float32(cy+a.cellH) * inv,
			},
		}
	}
	return a
}

// Size returns the side length of the square atlas in texels.
func (a *FontAtlas) Size() uint32 { return a.size }

// Version returns the upload version. It changes whenever the atlas
// content is rebuilt.
func (a *FontAtlas) Version() uint64 { return a.version }

// RGBA returns the raw texel data, row major, 4 bytes per texel.
func (a *FontAtlas) RGBA() []byte { return a.img.Pix }

// CellSize returns the glyph cell dimensions in pixels.
func (a *FontAtlas) CellSize() (w, h int) { return a.cellW, a.cellH }

// WhiteUV returns the center of the solid white atlas cell, used as
// the UV of untextured GUI geometry.
func (a *FontAtlas) WhiteUV() gfaview.Point { return a.whiteUV }

// AppendRect appends a solid quad to a mesh.
func (a *FontAtlas) AppendRect(mesh *GUIMesh, r gfaview.Rect, col gfaview.RGBA) {
	base := uint32(len(mesh.Vertices))
	uv := a.whiteUV
	mesh.Vertices = append(mesh.Vertices,
		GUIVertex{Pos: r.Min, UV: uv, Color: col},
		GUIVertex{Pos: gfaview.Point{X: r.Max.X, Y: r.Min.Y}, UV: uv, Color: col},
		GUIVertex{Pos: r.Max, UV: uv, Color: col},
		GUIVertex{Pos: gfaview.Point{X: r.Min.X, Y: r.Max.Y}, UV: uv, Color: col},
	)
	mesh.Indices = append(mesh.Indices,
		base, base+1, base+2,
		base, base+2, base+3,
	)
}

// Glyph returns the atlas region of a printable ASCII rune. Runes
// outside the atlas range map to '?'.
func (a *FontAtlas) Glyph(r rune) GlyphUV {
	if r < atlasFirstChr || r > atlasLastChr {
		r = '?'
	}
	return a.glyphs[r-atlasFirstChr]
}

// MeasureString returns the pixel width of a string drawn from the
// atlas at scale 1.
func (a *FontAtlas) MeasureString(s string) float32 {
	n := 0
	for range s {
		n++
	}
	return float32(n * a.cellW)
}

// AppendText appends textured glyph quads for s to a mesh, with the
// baseline-left origin at pos.
func (a *FontAtlas) AppendText(mesh *GUIMesh, s string, pos gfaview.Point, col gfaview.RGBA) {
	x := pos.X
	y := pos.Y - float32(a.ascent)
	for _, r := range s {
		uv := a.Glyph(r)
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices,
			GUIVertex{Pos: gfaview.Point{X: x, Y: y}, UV: uv.Min, Color: col},
			GUIVertex{Pos: gfaview.Point{X: x + float32(a.cellW), Y: y}, UV: gfaview.Point{X: uv.Max.X, Y: uv.Min.Y}, Color: col},
			GUIVertex{Pos: gfaview.Point{X: x + float32(a.cellW), Y: y + float32(a.cellH)}, UV: uv.Max, Color: col},
			GUIVertex{Pos: gfaview.Point{X: x, Y: y + float32(a.cellH)}, UV: gfaview.Point{X: uv.Min.X, Y: uv.Max.Y}, Color: col},
		)
		mesh.Indices = append(mesh.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
		x += float32(a.cellW)
	}
}
