package overlay

import gfaview "github.com/gfaview/gfaview"

// Theme is a node color palette plus a background clear color. Node
// color index is the node id modulo the palette length; the palette is
// uploaded as a 1D lookup texture.
type Theme struct {
	Name       string
	Background gfaview.RGB
	NodeColors []gfaview.RGB
}

var rainbow = []gfaview.RGB{
	{R: 1, G: 0, B: 0},
	{R: 1, G: 0.65, B: 0},
	{R: 1, G: 1, B: 0},
	{R: 0, G: 0.5, B: 0},
	{R: 0, G: 0, B: 1},
	{R: 0.3, G: 0, B: 0.51},
	{R: 0.93, G: 0.51, B: 0.93},
}

// LightDefault returns the default light theme.
func LightDefault() Theme {
	return Theme{
		Name:       "light",
		Background: gfaview.RGB{R: 1, G: 1, B: 1},
		NodeColors: append([]gfaview.RGB(nil), rainbow...),
	}
}

// DarkDefault returns the default dark theme.
func DarkDefault() Theme {
	return Theme{
		Name:       "dark",
		Background: gfaview.RGB{R: 0, G: 0, B: 0.05},
		NodeColors: append([]gfaview.RGB(nil), rainbow...),
	}
}

// NodeColor returns the palette color for a node id.
func (t Theme) NodeColor(id uint32) gfaview.RGB {
	if len(t.NodeColors) == 0 || id == 0 {
		return gfaview.RGB{}
	}
	return t.NodeColors[int(id-1)%len(t.NodeColors)]
}

// LUTBytes packs the palette as RGBA texels for the theme lookup
// texture, alpha saturated.
func (t Theme) LUTBytes() []byte {
	out := make([]byte, 0, len(t.NodeColors)*4)
	for _, c := range t.NodeColors {
		b := c.WithAlpha(1).Bytes()
		out = append(out, b[:]...)
	}
	return out
}
