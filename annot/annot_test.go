package annot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfaview/gfaview/graph"
)

const sampleGff3 = `##gff-version 3
chr1	ensembl	gene	1000	2000	.	+	.	ID=gene0001;Name=BRCA2
chr1	ensembl	exon	1000	1200	0.9	+	0	Parent=gene0001;Alias=ex1,ex1b
chr1	.	region	10	20	.	?	.	ID=reg1
not a gff row
chr2	ensembl	gene	50	80	.	-	.	ID=gene0002;Name=TP53
`

func TestReadGff3(t *testing.T) {
	recs, err := ReadGff3(strings.NewReader(sampleGff3))
	require.NoError(t, err)
	require.Equal(t, 4, recs.Len())

	gene := recs.Records()[0]
	assert.Equal(t, "chr1", gene.SeqID())
	assert.Equal(t, "ensembl", gene.Source())
	assert.Equal(t, "gene", gene.Type())
	assert.Equal(t, uint64(1000), gene.Start())
	assert.Equal(t, uint64(2000), gene.End())
	assert.Equal(t, StrandForward, gene.Strand())
	assert.Equal(t, []string{"BRCA2"}, gene.Attr("Name"))

	_, ok := gene.Score()
	assert.False(t, ok, "dot score means no score")

	exon := recs.Records()[1]
	score, ok := exon.Score()
	assert.True(t, ok)
	assert.InDelta(t, 0.9, score, 1e-9)
	assert.Equal(t, []string{"ex1", "ex1b"}, exon.Attr("Alias"), "comma separated values split")

	assert.Equal(t, []string{"Alias", "ID", "Name", "Parent"}, recs.AttributeKeys())

	name, ok := recs.Records()[3].GetFirst(Column{Kind: ColAttribute, Name: "Name"})
	require.True(t, ok)
	assert.Equal(t, "TP53", name)
}

func TestReadGff3Empty(t *testing.T) {
	_, err := ReadGff3(strings.NewReader("##gff-version 3\n"))
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestGff3Columns(t *testing.T) {
	recs, err := ReadGff3(strings.NewReader(sampleGff3))
	require.NoError(t, err)

	mand := recs.MandatoryColumns()
	require.Len(t, mand, 3)
	assert.Equal(t, "seq_id", mand[0].String())

	var names []string
	for _, c := range recs.OptionalColumns() {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"source", "type", "score", "strand", "frame", "Alias", "ID", "Name", "Parent"}, names)
}

const sampleBedHeaders = `#chrom	start	end	name	coverage
chr1	100	300	featA	12.5
# a stray comment
chr1	250	400	featB	3.0
chr2	0	50	featC	0.0
`

func TestReadBed(t *testing.T) {
	recs, err := ReadBed(strings.NewReader(sampleBedHeaders))
	require.NoError(t, err)
	require.Equal(t, 3, recs.Len())
	require.True(t, recs.HasHeaders())

	r := recs.Records()[0]
	assert.Equal(t, "chr1", r.SeqID())
	assert.Equal(t, uint64(100), r.Start())
	assert.Equal(t, uint64(300), r.End())
	assert.Equal(t, []string{"featA", "12.5"}, r.Rest())

	score, ok := r.Score()
	require.True(t, ok)
	assert.InDelta(t, 12.5, score, 1e-9)

	col, ok := recs.HeaderColumn("coverage")
	require.True(t, ok)
	assert.Equal(t, ColHeader, col.Kind)
	v, ok := r.GetFirst(col)
	require.True(t, ok)
	assert.Equal(t, "12.5", v)

	_, ok = recs.HeaderColumn("nope")
	assert.False(t, ok)

	col, ok = recs.HeaderColumn("chrom")
	require.True(t, ok)
	assert.Equal(t, ColSeqID, col.Kind)
}

func TestReadBedNoHeaders(t *testing.T) {
	recs, err := ReadBed(strings.NewReader("chr1\t0\t10\tx\nchr1\t10\t20\ty\n"))
	require.NoError(t, err)
	assert.False(t, recs.HasHeaders())

	opt := recs.OptionalColumns()
	require.Len(t, opt, 1)
	assert.Equal(t, ColIndex, opt[0].Kind)

	v, ok := recs.Records()[1].GetFirst(opt[0])
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestReadBedSkipsBadRows(t *testing.T) {
	recs, err := ReadBed(strings.NewReader("chr1\tzero\t10\nchr1\t5\t10\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, recs.Len())

	_, err = ReadBed(strings.NewReader("chr1\tzero\t10\n"))
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestParseStrand(t *testing.T) {
	for in, want := range map[string]Strand{"+": StrandForward, "-": StrandReverse, ".": StrandNone, "?": StrandNone} {
		got, err := ParseStrand(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrand("x")
	assert.ErrorIs(t, err, ErrBadStrand)
}

// tenNodeGraph builds a single path of ten 100bp nodes named chr1.
func tenNodeGraph(t *testing.T) graph.Source {
	t.Helper()
	g := graph.New()
	var steps []graph.Handle
	for id := graph.NodeID(1); id <= 10; id++ {
		seq := strings.Repeat("A", 100)
		require.NoError(t, g.AddNode(id, []byte(seq)))
		steps = append(steps, graph.NewHandle(id, false))
	}
	_, err := g.AddPath([]byte("chr1"), steps)
	require.NoError(t, err)
	return g
}

func TestBuildLabelSet(t *testing.T) {
	g := tenNodeGraph(t)

	bed := "#chrom\tstart\tend\tname\n" +
		"chr1\t100\t300\tfeatA\n" + // nodes 2-3, midpoint node 3
		"chr1\t900\t1000\tfeatB\n" + // node 10
		"chr1\t950\t980\tfeatB\n" + // node 10 again, dedup
		"chrX\t0\t10\telsewhere\n"
	recs, err := ReadBed(strings.NewReader(bed))
	require.NoError(t, err)

	col, ok := recs.HeaderColumn("name")
	require.True(t, ok)

	ls, err := BuildLabelSet("names", g, 0, 0, col, recs)
	require.NoError(t, err)

	assert.Equal(t, 2, ls.Len())
	assert.Equal(t, []string{"featA"}, ls.Labels(3))
	assert.Equal(t, []string{"featB"}, ls.Labels(10))
	assert.Empty(t, ls.Labels(1))
}

func TestBuildLabelSetOffset(t *testing.T) {
	g := tenNodeGraph(t)

	// Path covers reference bases 500 and up.
	bed := "chr1\t600\t700\tshifted\nchr1\t0\t100\tbefore\n"
	recs, err := ReadBed(strings.NewReader(bed))
	require.NoError(t, err)

	ls, err := BuildLabelSet("s", g, 0, 500, Column{Kind: ColIndex, Index: 0}, recs)
	require.NoError(t, err)

	// Local range 100-200 covers nodes 2 and 3; the label lands on the
	// midpoint node.
	assert.Equal(t, []string{"shifted"}, ls.Labels(3))
	assert.Equal(t, 1, ls.Len())
}

func TestIntervalIndex(t *testing.T) {
	bed := "chr1\t0\t100\ta\nchr1\t50\t500\tb\nchr1\t400\t450\tc\nchr2\t10\t20\td\n"
	recs, err := ReadBed(strings.NewReader(bed))
	require.NoError(t, err)

	idx := NewIntervalIndex(recs)
	assert.Equal(t, 2, idx.Sequences())

	tests := []struct {
		name           string
		seq            string
		start, end     uint64
		want           []int
	}{
		{"covers all", "chr1", 0, 1000, []int{0, 1, 2}},
		{"middle", "chr1", 120, 180, []int{1}},
		{"touches two", "chr1", 90, 120, []int{0, 1}},
		{"long straddler found", "chr1", 460, 470, []int{1}},
		{"other sequence", "chr2", 0, 100, []int{3}},
		{"unknown sequence", "chrZ", 0, 100, nil},
		{"empty range", "chr1", 50, 50, nil},
		{"past the end", "chr1", 600, 700, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Query(tt.seq, tt.start, tt.end))
		})
	}
}
