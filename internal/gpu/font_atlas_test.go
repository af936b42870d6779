//go:build !nogpu

package gpu

import (
	"testing"

	gfaview "github.com/gfaview/gfaview"
)

func TestFontAtlasBuild(t *testing.T) {
	a := NewFontAtlas()

	size := a.Size()
	if size == 0 || size&(size-1) != 0 {
		t.Fatalf("atlas size %d is not a power of two", size)
	}
	if len(a.RGBA()) != int(size)*int(size)*4 {
		t.Errorf("RGBA length = %d, want %d", len(a.RGBA()), int(size)*int(size)*4)
	}
	if a.Version() == 0 {
		t.Error("expected non-zero version")
	}

	w, h := a.CellSize()
	if w <= 0 || h <= 0 {
		t.Errorf("cell size (%d, %d) not positive", w, h)
	}
}

func TestFontAtlasGlyphUVs(t *testing.T) {
	a := NewFontAtlas()

	for _, r := range []rune{'A', 'z', '0', ']', ' ', '~'} {
		uv := a.Glyph(r)
		if uv.Min.X < 0 || uv.Min.Y < 0 || uv.Max.X > 1 || uv.Max.Y > 1 {
			t.Errorf("glyph %q UV out of range: %+v", r, uv)
		}
		if uv.Max.X <= uv.Min.X || uv.Max.Y <= uv.Min.Y {
			t.Errorf("glyph %q UV rect degenerate: %+v", r, uv)
		}
	}

	// Out-of-range runes fall back to '?'.
	if a.Glyph('é') != a.Glyph('?') {
		t.Error("expected non-ASCII rune to map to '?'")
	}
}

func TestFontAtlasWhiteTexel(t *testing.T) {
	a := NewFontAtlas()

	uv := a.WhiteUV()
	px := int(uv.X * float32(a.Size()))
	py := int(uv.Y * float32(a.Size()))
	off := (py*int(a.Size()) + px) * 4
	pix := a.RGBA()
	if pix[off] != 255 || pix[off+1] != 255 || pix[off+2] != 255 || pix[off+3] != 255 {
		t.Errorf("texel at white UV is %v, want opaque white",
			pix[off:off+4])
	}
}

func TestFontAtlasAppendText(t *testing.T) {
	a := NewFontAtlas()

	var mesh GUIMesh
	a.AppendText(&mesh, "abc", gfaview.Point{X: 5, Y: 20}, gfaview.RGBA{R: 1, A: 1})
	if len(mesh.Vertices) != 12 {
		t.Errorf("vertices = %d, want 12", len(mesh.Vertices))
	}
	if len(mesh.Indices) != 18 {
		t.Errorf("indices = %d, want 18", len(mesh.Indices))
	}

	w, _ := a.CellSize()
	if got := a.MeasureString("abc"); got != float32(3*w) {
		t.Errorf("MeasureString = %v, want %v", got, float32(3*w))
	}

	// Second glyph starts one advance to the right of the first.
	if mesh.Vertices[4].Pos.X != mesh.Vertices[0].Pos.X+float32(w) {
		t.Error("glyph advance mismatch")
	}
}

func TestFontAtlasAppendRect(t *testing.T) {
	a := NewFontAtlas()

	var mesh GUIMesh
	r := gfaview.Rect{Min: gfaview.Point{X: 1, Y: 2}, Max: gfaview.Point{X: 30, Y: 40}}
	a.AppendRect(&mesh, r, gfaview.RGBA{B: 1, A: 0.5})
	if len(mesh.Vertices) != 4 || len(mesh.Indices) != 6 {
		t.Fatalf("got %d vertices, %d indices", len(mesh.Vertices), len(mesh.Indices))
	}
	for _, v := range mesh.Vertices {
		if v.UV != a.WhiteUV() {
			t.Error("solid quad must use the white atlas texel")
		}
	}
}
