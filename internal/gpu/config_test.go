//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	gfaview "github.com/gfaview/gfaview"
)

func f32At(t *testing.T, buf []byte, off int) float32 {
	t.Helper()
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func u32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func TestWorkgroupCount(t *testing.T) {
	cases := []struct {
		n    uint32
		want uint32
	}{
		{0, 0},
		{1, 1},
		{255, 1},
		{256, 1},
		{257, 2},
		{1024, 4},
		{1025, 5},
	}
	for _, c := range cases {
		if got := workgroupCount(c.n); got != c.want {
			t.Errorf("workgroupCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestAlignedBytesPerRow(t *testing.T) {
	cases := []struct {
		width uint32
		want  uint32
	}{
		{1, 256},
		{64, 256},
		{65, 512},
		{128, 512},
		{800, 3328},
	}
	for _, c := range cases {
		if got := alignedBytesPerRow(c.width); got != c.want {
			t.Errorf("alignedBytesPerRow(%d) = %d, want %d", c.width, got, c.want)
		}
		if got := alignedBytesPerRow(c.width); got%256 != 0 {
			t.Errorf("alignedBytesPerRow(%d) = %d, not 256-aligned", c.width, got)
		}
	}
}

func TestSelectRectConfigLayout(t *testing.T) {
	cfg := SelectRectConfig{
		NodeCount: 42,
		Clear:     true,
		Rect: gfaview.Rect{
			Min: gfaview.Point{X: -1.5, Y: 2},
			Max: gfaview.Point{X: 3, Y: 4.25},
		},
	}
	buf := cfg.toBytes()
	if len(buf) != selectRectConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), selectRectConfigSize)
	}
	if u32At(buf, 0) != 42 {
		t.Errorf("node_count = %d, want 42", u32At(buf, 0))
	}
	if u32At(buf, 4) != 1 {
		t.Errorf("clear = %d, want 1", u32At(buf, 4))
	}
	if f32At(t, buf, 8) != -1.5 || f32At(t, buf, 12) != 2 {
		t.Error("rect_min mismatch")
	}
	if f32At(t, buf, 16) != 3 || f32At(t, buf, 20) != 4.25 {
		t.Error("rect_max mismatch")
	}

	cfg.Clear = false
	if u32At(cfg.toBytes(), 4) != 0 {
		t.Error("clear = 1, want 0")
	}
}

func TestTranslateConfigLayout(t *testing.T) {
	cfg := TranslateConfig{
		NodeCount: 7,
		Delta:     gfaview.Point{X: 10, Y: -20},
	}
	buf := cfg.toBytes()
	if len(buf) != translateConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), translateConfigSize)
	}
	if u32At(buf, 0) != 7 {
		t.Errorf("node_count = %d, want 7", u32At(buf, 0))
	}
	if f32At(t, buf, 8) != 10 || f32At(t, buf, 12) != -20 {
		t.Error("delta mismatch")
	}
}

func TestEdgeCurveConfigLayout(t *testing.T) {
	cfg := EdgeCurveConfig{
		EdgeCount: 9,
		ViewportW: 800,
		ViewportH: 600,
		Scale:     2.5,
		Bow:       0.25,
	}
	buf := cfg.toBytes()
	if len(buf) != edgeCurveConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), edgeCurveConfigSize)
	}
	if u32At(buf, 0) != 9 {
		t.Errorf("edge_count = %d, want 9", u32At(buf, 0))
	}
	if f32At(t, buf, 8) != 800 || f32At(t, buf, 12) != 600 {
		t.Error("viewport mismatch")
	}
	if f32At(t, buf, 16) != 2.5 {
		t.Error("scale mismatch")
	}
	if f32At(t, buf, 20) != 0.25 {
		t.Error("bow mismatch")
	}
}

func TestNodeConfigLayout(t *testing.T) {
	var clip [16]float32
	for i := range clip {
		clip[i] = float32(i)
	}
	cfg := NodeConfig{
		Clip:          clip,
		BaseWidth:     12,
		Scale:         0.5,
		ViewportW:     1920,
		ViewportH:     1080,
		TexturePeriod: 6,
		OverlayMode:   NodeColorOverlayValue,
	}
	buf := cfg.toBytes()
	if len(buf) != nodeConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), nodeConfigSize)
	}
	for i := range clip {
		if f32At(t, buf, i*4) != float32(i) {
			t.Fatalf("clip[%d] mismatch", i)
		}
	}
	if f32At(t, buf, 64) != 12 {
		t.Error("base_width mismatch")
	}
	if f32At(t, buf, 68) != 0.5 {
		t.Error("scale mismatch")
	}
	if f32At(t, buf, 72) != 1920 || f32At(t, buf, 76) != 1080 {
		t.Error("viewport mismatch")
	}
	if f32At(t, buf, 80) != 6 {
		t.Error("texture_period mismatch")
	}
	if u32At(buf, 84) != NodeColorOverlayValue {
		t.Error("overlay_mode mismatch")
	}
}

func TestEdgeConfigLayout(t *testing.T) {
	cfg := EdgeConfig{
		Width:     3,
		Scale:     1.5,
		ViewportW: 640,
		ViewportH: 480,
		Color:     [4]float32{0.1, 0.2, 0.3, 0.4},
	}
	buf := cfg.toBytes()
	if len(buf) != edgeConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), edgeConfigSize)
	}
	if f32At(t, buf, 64) != 3 {
		t.Error("width mismatch")
	}
	if f32At(t, buf, 68) != 1.5 {
		t.Error("scale mismatch")
	}
	if f32At(t, buf, 72) != 640 || f32At(t, buf, 76) != 480 {
		t.Error("viewport mismatch")
	}
	for i, want := range []float32{0.1, 0.2, 0.3, 0.4} {
		if f32At(t, buf, 80+i*4) != want {
			t.Errorf("color[%d] mismatch", i)
		}
	}
}

func TestPostConfigLayout(t *testing.T) {
	cfg := PostConfig{TexelW: 1.0 / 800, TexelH: 1.0 / 600, Enabled: true}
	buf := cfg.toBytes()
	if len(buf) != postConfigSize {
		t.Fatalf("len = %d, want %d", len(buf), postConfigSize)
	}
	if f32At(t, buf, 0) != 1.0/800 || f32At(t, buf, 4) != 1.0/600 {
		t.Error("texel mismatch")
	}
	if u32At(buf, 8) != 1 {
		t.Error("enabled mismatch")
	}

	cfg.Enabled = false
	if u32At(cfg.toBytes(), 8) != 0 {
		t.Error("enabled = 1, want 0")
	}
}
