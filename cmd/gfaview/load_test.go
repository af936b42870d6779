package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfaview/gfaview/graph"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in      string
		id      graph.NodeID
		reverse bool
		ok      bool
	}{
		{"1+", 1, false, true},
		{"7-", 7, true, true},
		{"12", 12, false, true},
		{"0+", 0, false, false},
		{"x", 0, false, false},
		{"", 0, false, false},
	}
	for _, tt := range tests {
		h, err := parseHandle(tt.in)
		if !tt.ok {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.id, h.ID(), "input %q", tt.in)
		assert.Equal(t, tt.reverse, h.IsReverse(), "input %q", tt.in)
	}
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Layout = writeFile(t, dir, "layout.tsv",
		"idx\tx\ty\n0\t0\t0\n1\t10\t0\n2\t10\t5\n3\t20\t5\n4\t20\t-5\n5\t30\t-5\n")
	cfg.Seqs = writeFile(t, dir, "seqs.tsv", "1\tACGT\n3\tTT\n")
	cfg.Edges = writeFile(t, dir, "edges.tsv", "# comment\n1+\t2+\n2+\t3-\n")
	cfg.Paths = writeFile(t, dir, "paths.tsv", "ref\t1+,2+,3-\n")

	in, err := loadInputs(&cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, in.positions.NodeCount())
	assert.Equal(t, 3, in.graph.NodeCount())
	assert.Equal(t, 2, in.graph.EdgeCount())
	assert.Equal(t, 1, in.graph.PathCount())

	assert.Equal(t, []byte("ACGT"), in.graph.Sequence(graph.NewHandle(1, false)))
	assert.Empty(t, in.graph.Sequence(graph.NewHandle(2, false)))
}

func TestLoadInputsNoLayout(t *testing.T) {
	cfg := defaultConfig()
	_, err := loadInputs(&cfg)
	require.Error(t, err)
}

func TestLoadEdgesBadReference(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Layout = writeFile(t, dir, "layout.tsv", "idx\tx\ty\n0\t0\t0\n1\t10\t0\n")
	cfg.Edges = writeFile(t, dir, "edges.tsv", "1+\tbogus\n")

	_, err := loadInputs(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
