package annot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Gff3Record is one GFF3 feature line. Attributes with a repeated tag
// keep every value in order of appearance.
type Gff3Record struct {
	seqID  string
	source string
	typ    string

	start uint64
	end   uint64

	score    float64
	hasScore bool

	strand Strand
	frame  string

	attrs map[string][]string
}

func (r *Gff3Record) SeqID() string  { return r.seqID }
func (r *Gff3Record) Source() string { return r.source }
func (r *Gff3Record) Type() string   { return r.typ }
func (r *Gff3Record) Start() uint64  { return r.start }
func (r *Gff3Record) End() uint64    { return r.end }
func (r *Gff3Record) Strand() Strand { return r.strand }
func (r *Gff3Record) Frame() string  { return r.frame }

func (r *Gff3Record) Score() (float64, bool) { return r.score, r.hasScore }

// Attr returns all values recorded for an attribute tag.
func (r *Gff3Record) Attr(tag string) []string { return r.attrs[tag] }

func (r *Gff3Record) GetFirst(col Column) (string, bool) {
	vals := r.GetAll(col)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (r *Gff3Record) GetAll(col Column) []string {
	switch col.Kind {
	case ColSeqID:
		return []string{r.seqID}
	case ColSource:
		return []string{r.source}
	case ColType:
		return []string{r.typ}
	case ColStart:
		return []string{strconv.FormatUint(r.start, 10)}
	case ColEnd:
		return []string{strconv.FormatUint(r.end, 10)}
	case ColScore:
		if !r.hasScore {
			return nil
		}
		return []string{strconv.FormatFloat(r.score, 'g', -1, 64)}
	case ColStrand:
		return []string{r.strand.String()}
	case ColFrame:
		return []string{r.frame}
	case ColAttribute:
		return r.attrs[col.Name]
	}
	return nil
}

// Gff3Records is a parsed GFF3 file.
type Gff3Records struct {
	fileName string
	records  []Gff3Record
	attrKeys []string
}

// ReadGff3File parses a GFF3 file. Comment lines and rows that do not
// parse are skipped; a file yielding no records is an error.
func ReadGff3File(path string) (*Gff3Records, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("annot: open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := ReadGff3(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	recs.fileName = filepath.Base(path)
	return recs, nil
}

// ReadGff3 parses GFF3 from a reader.
func ReadGff3(r io.Reader) (*Gff3Records, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)

	recs := &Gff3Records{}
	attrKeys := make(map[string]struct{})

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, ok := parseGff3Row(strings.Split(line, "\t"))
		if !ok {
			continue
		}
		for tag := range rec.attrs {
			attrKeys[tag] = struct{}{}
		}
		recs.records = append(recs.records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(recs.records) == 0 {
		return nil, ErrNoRecords
	}

	recs.attrKeys = make([]string, 0, len(attrKeys))
	for tag := range attrKeys {
		recs.attrKeys = append(recs.attrKeys, tag)
	}
	sort.Strings(recs.attrKeys)
	return recs, nil
}

func parseGff3Row(fields []string) (Gff3Record, bool) {
	if len(fields) != 9 {
		return Gff3Record{}, false
	}

	start, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return Gff3Record{}, false
	}
	end, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Gff3Record{}, false
	}

	rec := Gff3Record{
		seqID:  fields[0],
		source: fields[1],
		typ:    fields[2],
		start:  start,
		end:    end,
		frame:  fields[7],
	}

	if fields[5] != "." {
		score, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return Gff3Record{}, false
		}
		rec.score = score
		rec.hasScore = true
	}

	strand, err := ParseStrand(fields[6])
	if err != nil {
		return Gff3Record{}, false
	}
	rec.strand = strand

	rec.attrs = make(map[string][]string)
	for _, attr := range strings.Split(fields[8], ";") {
		if attr == "" {
			continue
		}
		tag, val, ok := strings.Cut(attr, "=")
		if !ok {
			return Gff3Record{}, false
		}
		// A value may itself be a comma separated list.
		for _, v := range strings.Split(val, ",") {
			rec.attrs[tag] = append(rec.attrs[tag], v)
		}
	}

	return rec, true
}

func (g *Gff3Records) FileName() string { return g.fileName }
func (g *Gff3Records) Len() int         { return len(g.records) }

func (g *Gff3Records) Record(i int) Record { return &g.records[i] }

// Records returns the parsed rows.
func (g *Gff3Records) Records() []Gff3Record { return g.records }

// AttributeKeys returns every attribute tag seen in the file, sorted.
func (g *Gff3Records) AttributeKeys() []string { return g.attrKeys }

func (g *Gff3Records) MandatoryColumns() []Column {
	return []Column{{Kind: ColSeqID}, {Kind: ColStart}, {Kind: ColEnd}}
}

func (g *Gff3Records) OptionalColumns() []Column {
	cols := []Column{
		{Kind: ColSource},
		{Kind: ColType},
		{Kind: ColScore},
		{Kind: ColStrand},
		{Kind: ColFrame},
	}
	for _, tag := range g.attrKeys {
		cols = append(cols, Column{Kind: ColAttribute, Name: tag})
	}
	return cols
}

func (g *Gff3Records) Columns() []Column {
	return append(g.MandatoryColumns(), g.OptionalColumns()...)
}
