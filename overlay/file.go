package overlay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	gfaview "github.com/gfaview/gfaview"
)

// Overlay files are little-endian binary: a u32 node count, then one
// entry per node. RGB overlays store 4 bytes per node (RGBA, 8 bits per
// channel); value overlays store one float32 per node. The two layouts
// have the same length, so the kind is the caller's to know.

// WriteFile persists an overlay.
func WriteFile(path string, ov *Overlay) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("overlay: create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)

	if err := Write(w, ov); err != nil {
		f.Close()
		return fmt.Errorf("overlay: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("overlay: write %s: %w", path, err)
	}
	return f.Close()
}

// Write serializes an overlay.
func Write(w io.Writer, ov *Overlay) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(ov.NodeCount()))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	switch ov.Kind {
	case KindRGB:
		for _, c := range ov.Colors {
			b := c.Bytes()
			if _, err := w.Write(b[:]); err != nil {
				return err
			}
		}
	case KindValue:
		for _, v := range ov.Values {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := w.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFile loads an overlay of known kind and checks it against the
// expected node count.
func ReadFile(path string, kind Kind, nodeCount int) (*Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("overlay: open %s: %w", path, err)
	}
	defer f.Close()

	ov, err := Read(bufio.NewReader(f), kind)
	if err != nil {
		return nil, fmt.Errorf("overlay: read %s: %w", path, err)
	}
	if ov.NodeCount() != nodeCount {
		return nil, fmt.Errorf("%w: %s has %d nodes, graph has %d",
			ErrBadLength, path, ov.NodeCount(), nodeCount)
	}
	return ov, nil
}

// Read deserializes an overlay of known kind.
func Read(r io.Reader, kind Kind) (*Overlay, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(buf[:])

	// The count is untrusted input; grow the slices while reading so a
	// corrupt header cannot demand a huge allocation up front.
	const preallocCap = 1 << 16

	ov := &Overlay{Kind: kind}
	switch kind {
	case KindRGB:
		ov.Colors = make([]gfaview.RGBA, 0, min(count, preallocCap))
		for i := uint32(0); i < count; i++ {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, err
			}
			ov.Colors = append(ov.Colors, gfaview.RGBAFromBytes(buf))
		}
	case KindValue:
		ov.Values = make([]float32, 0, min(count, preallocCap))
		for i := uint32(0); i < count; i++ {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, err
			}
			ov.Values = append(ov.Values, math.Float32frombits(binary.LittleEndian.Uint32(buf[:])))
		}
	}
	return ov, nil
}
