package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gfaview/gfaview/annot"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
)

// loadedInputs bundles everything the subcommands consume.
type loadedInputs struct {
	positions *layout.Positions
	graph     *graph.Graph
	annots    []annot.Collection
}

// loadInputs parses the layout and builds the graph from the optional
// edge, sequence, and path files. The layout is the node census: every
// other file refers to its 1-based node ids.
func loadInputs(cfg *config) (*loadedInputs, error) {
	if cfg.Layout == "" {
		return nil, fmt.Errorf("a layout file is required (--layout)")
	}
	positions, err := layout.ReadTSVFile(cfg.Layout)
	if err != nil {
		return nil, err
	}

	seqs, err := loadSeqs(cfg.Seqs)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for id := 1; id <= positions.NodeCount(); id++ {
		if err := g.AddNode(graph.NodeID(id), seqs[graph.NodeID(id)]); err != nil {
			return nil, err
		}
	}

	if cfg.Edges != "" {
		if err := loadEdges(cfg.Edges, g); err != nil {
			return nil, err
		}
	}
	if cfg.Paths != "" {
		if err := loadPaths(cfg.Paths, g); err != nil {
			return nil, err
		}
	}

	in := &loadedInputs{positions: positions, graph: g}
	if cfg.Gff != "" {
		coll, err := annot.ReadGff3File(cfg.Gff)
		if err != nil {
			return nil, err
		}
		in.annots = append(in.annots, coll)
	}
	if cfg.Bed != "" {
		coll, err := annot.ReadBedFile(cfg.Bed)
		if err != nil {
			return nil, err
		}
		in.annots = append(in.annots, coll)
	}
	return in, nil
}

// loadSeqs reads an optional `id<TAB>sequence` file. Nodes without a
// row keep an empty sequence.
func loadSeqs(path string) (map[graph.NodeID][]byte, error) {
	seqs := make(map[graph.NodeID][]byte)
	if path == "" {
		return seqs, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seqs: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("seqs: line %d: want `id sequence`, got %d fields", lineNum, len(fields))
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("seqs: line %d: bad node id %q", lineNum, fields[0])
		}
		seqs[graph.NodeID(id)] = []byte(fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("seqs: read %s: %w", path, err)
	}
	return seqs, nil
}

// parseHandle parses an oriented node reference like `12+` or `7-`.
// A bare id means forward.
func parseHandle(s string) (graph.Handle, error) {
	reverse := false
	switch {
	case strings.HasSuffix(s, "+"):
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "-"):
		s = s[:len(s)-1]
		reverse = true
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("bad node reference %q", s)
	}
	return graph.NewHandle(graph.NodeID(id), reverse), nil
}

// loadEdges reads a `from to` TSV of oriented node references.
func loadEdges(path string, g *graph.Graph) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("edges: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != 2 {
			return fmt.Errorf("edges: line %d: want `from to`, got %d fields", lineNum, len(fields))
		}
		from, err := parseHandle(fields[0])
		if err != nil {
			return fmt.Errorf("edges: line %d: %w", lineNum, err)
		}
		to, err := parseHandle(fields[1])
		if err != nil {
			return fmt.Errorf("edges: line %d: %w", lineNum, err)
		}
		if err := g.AddEdge(from, to); err != nil {
			return fmt.Errorf("edges: line %d: %w", lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("edges: read %s: %w", path, err)
	}
	return nil
}

// loadPaths reads a `name steps` TSV, with steps a comma separated
// list of oriented node references.
func loadPaths(path string, g *graph.Graph) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("paths: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != 2 {
			return fmt.Errorf("paths: line %d: want `name steps`, got %d fields", lineNum, len(fields))
		}
		parts := strings.Split(fields[1], ",")
		steps := make([]graph.Handle, 0, len(parts))
		for _, p := range parts {
			h, err := parseHandle(p)
			if err != nil {
				return fmt.Errorf("paths: line %d: %w", lineNum, err)
			}
			steps = append(steps, h)
		}
		if _, err := g.AddPath([]byte(fields[0]), steps); err != nil {
			return fmt.Errorf("paths: line %d: %w", lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("paths: read %s: %w", path, err)
	}
	return nil
}
