package layout

import (
	"encoding/binary"
	"math"

	gfaview "github.com/gfaview/gfaview"
)

func appendPoint(dst []byte, p gfaview.Point) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(p.X))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(p.Y))
	return dst
}

func pointAt(data []byte) gfaview.Point {
	return gfaview.Pt(
		math.Float32frombits(binary.LittleEndian.Uint32(data)),
		math.Float32frombits(binary.LittleEndian.Uint32(data[4:])),
	)
}
