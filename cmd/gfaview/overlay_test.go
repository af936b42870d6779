package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfaview/gfaview/internal/gpu"
	"github.com/gfaview/gfaview/overlay"
	"github.com/gfaview/gfaview/view"
)

func testAnnotInputs(t *testing.T, bed string) *loadedInputs {
	t.Helper()
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Layout = writeFile(t, dir, "layout.tsv",
		"idx\tx\ty\n0\t0\t0\n1\t10\t0\n2\t10\t5\n3\t20\t5\n4\t20\t-5\n5\t30\t-5\n")
	cfg.Seqs = writeFile(t, dir, "seqs.tsv", "1\tACGT\n2\tGG\n3\tT\n")
	cfg.Paths = writeFile(t, dir, "paths.tsv", "ref\t1+,2+,3+\n")
	cfg.Bed = writeFile(t, dir, "genes.bed", bed)

	in, err := loadInputs(&cfg)
	require.NoError(t, err)
	return in
}

func TestResolveOverlayPath(t *testing.T) {
	in := testAnnotInputs(t, "#chrom start end name\nref\t0\t5\tgeneA\n")

	id, err := resolveOverlayPath(in.graph, "")
	require.NoError(t, err)
	assert.Equal(t, "ref", string(in.graph.PathName(id)))

	id, err = resolveOverlayPath(in.graph, "ref")
	require.NoError(t, err)
	assert.Equal(t, "ref", string(in.graph.PathName(id)))

	_, err = resolveOverlayPath(in.graph, "nope")
	require.Error(t, err)
}

func TestLabelColumnPrefersName(t *testing.T) {
	in := testAnnotInputs(t, "#chrom start end name\nref\t0\t5\tgeneA\n")
	col := labelColumn(in.annots[0])
	assert.Equal(t, "name", col.Name)
}

func TestBuildAnnotationOverlay(t *testing.T) {
	in := testAnnotInputs(t, "#chrom start end name\nref\t0\t5\tgeneA\n")

	// The record covers base pairs [0,5): nodes 1 (0-4) and 2 (4-6).
	ov, labels, err := buildAnnotationOverlay(in, "")
	require.NoError(t, err)
	assert.Equal(t, overlay.KindRGB, ov.Kind)
	assert.NotEqual(t, overlay.DefaultColor, ov.Colors[0])
	assert.NotEqual(t, overlay.DefaultColor, ov.Colors[1])
	assert.Equal(t, overlay.DefaultColor, ov.Colors[2])

	require.NotNil(t, labels)
	require.Len(t, labels.Nodes(), 1)
	assert.Equal(t, []string{"geneA"}, labels.Labels(labels.Nodes()[0]))
}

func TestBuildAnnotationOverlayNoOverlap(t *testing.T) {
	in := testAnnotInputs(t, "chrX\t0\t5\tgeneA\n")

	_, _, err := buildAnnotationOverlay(in, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no record")
}

func TestLabelMesh(t *testing.T) {
	in := testAnnotInputs(t, "#chrom start end name\nref\t0\t5\tgeneA\n")
	_, labels, err := buildAnnotationOverlay(in, "")
	require.NoError(t, err)
	require.NotNil(t, labels)

	dims := view.ScreenDims{Width: 640, Height: 480}
	v := view.DefaultView().FitRect(in.positions.BoundingBox(), dims)
	mesh := labelMesh(gpu.NewFontAtlas(), labels, in.positions, v, dims)

	// One 5-rune label: 4 vertices and 6 indices per glyph.
	assert.Len(t, mesh.Vertices, 5*4)
	assert.Len(t, mesh.Indices, 5*6)
}
