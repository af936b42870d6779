// Package overlay builds per-node color overlays from annotation
// records and manages theme palettes.
package overlay

import (
	"errors"
	"hash/fnv"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/annot"
)

// Overlay errors.
var (
	ErrKindMismatch = errors.New("overlay: kind mismatch")
	ErrBadLength    = errors.New("overlay: node count mismatch")
)

// Kind selects how an overlay maps nodes to colors.
type Kind uint8

const (
	// KindRGB overlays carry a full color per node.
	KindRGB Kind = iota
	// KindValue overlays carry one scalar per node, mapped to a color
	// through a gradient at sample time.
	KindValue
)

func (k Kind) String() string {
	if k == KindValue {
		return "value"
	}
	return "rgb"
}

// DefaultColor is the color of nodes no record touched.
var DefaultColor = gfaview.RGBA{R: 0.3, G: 0.3, B: 0.3, A: 0.3}

// Overlay is a dense per-node coloring. Exactly one of Colors or Values
// is populated, depending on Kind; index i holds node id i+1.
type Overlay struct {
	Name string
	Kind Kind

	Colors []gfaview.RGBA
	Values []float32
}

// NodeCount returns the number of nodes the overlay covers.
func (o *Overlay) NodeCount() int {
	if o.Kind == KindValue {
		return len(o.Values)
	}
	return len(o.Colors)
}

// ColorFunc maps an annotation record to a node color.
type ColorFunc func(rec annot.Record) (gfaview.RGBA, bool)

// ValueFunc maps an annotation record to a scalar.
type ValueFunc func(rec annot.Record) (float32, bool)

// HashColumnColor returns a ColorFunc that hashes the record's values
// in the given column to a stable color. Records without the column
// produce no color.
func HashColumnColor(col annot.Column) ColorFunc {
	return func(rec annot.Record) (gfaview.RGBA, bool) {
		vals := rec.GetAll(col)
		if len(vals) == 0 {
			return gfaview.RGBA{}, false
		}
		h := fnv.New64a()
		for _, v := range vals {
			h.Write([]byte(v))
		}
		c := gfaview.HashColor(h.Sum64())
		return gfaview.RGBA{R: c.R, G: c.G, B: c.B, A: 1}, true
	}
}

// ScoreValue is a ValueFunc reading the record's score column.
func ScoreValue(rec annot.Record) (float32, bool) {
	v, ok := rec.Score()
	return float32(v), ok
}
