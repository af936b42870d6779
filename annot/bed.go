package annot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BedRecord is one BED row: chrom, chromStart, chromEnd, plus any
// optional columns after the first three.
type BedRecord struct {
	chr   string
	start uint64
	end   uint64

	rest []string
}

func (r *BedRecord) SeqID() string { return r.chr }
func (r *BedRecord) Start() uint64 { return r.start }
func (r *BedRecord) End() uint64   { return r.end }

// Score returns the standard BED score column (the fifth column) when
// present and numeric.
func (r *BedRecord) Score() (float64, bool) {
	if len(r.rest) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(r.rest[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Rest returns the optional columns after chromEnd.
func (r *BedRecord) Rest() []string { return r.rest }

func (r *BedRecord) GetFirst(col Column) (string, bool) {
	vals := r.GetAll(col)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (r *BedRecord) GetAll(col Column) []string {
	switch col.Kind {
	case ColSeqID:
		return []string{r.chr}
	case ColStart:
		return []string{strconv.FormatUint(r.start, 10)}
	case ColEnd:
		return []string{strconv.FormatUint(r.end, 10)}
	case ColIndex, ColHeader:
		if col.Index < len(r.rest) {
			return []string{r.rest[col.Index]}
		}
	}
	return nil
}

// BedRecords is a parsed BED file.
type BedRecords struct {
	fileName string
	records  []BedRecord

	// headers holds the column names from a leading `#name1 name2 ...`
	// line, when the file has one.
	headers     []string
	columnCount int
}

// ReadBedFile parses a BED file. A `#` line at the top supplies column
// headers; other `#` lines and unparseable rows are skipped.
func ReadBedFile(path string) (*BedRecords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("annot: open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := ReadBed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	recs.fileName = filepath.Base(path)
	return recs, nil
}

// ReadBed parses BED from a reader.
func ReadBed(r io.Reader) (*BedRecords, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)

	recs := &BedRecords{}
	lineNum := 0

	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if lineNum == 1 && len(line) > 1 {
				recs.headers = strings.Fields(line[1:])
			}
			continue
		}

		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rec, ok := parseBedRow(fields)
		if !ok {
			continue
		}
		if len(rec.rest) > recs.columnCount {
			recs.columnCount = len(rec.rest)
		}
		recs.records = append(recs.records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(recs.records) == 0 {
		return nil, ErrNoRecords
	}
	return recs, nil
}

func parseBedRow(fields []string) (BedRecord, bool) {
	if len(fields) < 3 {
		return BedRecord{}, false
	}
	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return BedRecord{}, false
	}
	end, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return BedRecord{}, false
	}
	return BedRecord{
		chr:   fields[0],
		start: start,
		end:   end,
		rest:  append([]string(nil), fields[3:]...),
	}, true
}

func (b *BedRecords) FileName() string { return b.fileName }
func (b *BedRecords) Len() int         { return len(b.records) }

func (b *BedRecords) Record(i int) Record { return &b.records[i] }

// Records returns the parsed rows.
func (b *BedRecords) Records() []BedRecord { return b.records }

// HasHeaders reports whether the file declared column names.
func (b *BedRecords) HasHeaders() bool { return len(b.headers) > 0 }

// Headers returns the declared column names, including the mandatory
// three when the header line named them.
func (b *BedRecords) Headers() []string { return b.headers }

// HeaderColumn resolves a declared column name to its column key.
func (b *BedRecords) HeaderColumn(name string) (Column, bool) {
	for i, h := range b.headers {
		if h != name {
			continue
		}
		switch i {
		case 0:
			return Column{Kind: ColSeqID}, true
		case 1:
			return Column{Kind: ColStart}, true
		case 2:
			return Column{Kind: ColEnd}, true
		default:
			return Column{Kind: ColHeader, Name: name, Index: i - 3}, true
		}
	}
	return Column{}, false
}

func (b *BedRecords) MandatoryColumns() []Column {
	return []Column{{Kind: ColSeqID}, {Kind: ColStart}, {Kind: ColEnd}}
}

func (b *BedRecords) OptionalColumns() []Column {
	var cols []Column
	if len(b.headers) > 3 {
		for i, h := range b.headers[3:] {
			cols = append(cols, Column{Kind: ColHeader, Name: h, Index: i})
		}
		return cols
	}
	for i := 0; i < b.columnCount; i++ {
		cols = append(cols, Column{Kind: ColIndex, Index: i})
	}
	return cols
}

func (b *BedRecords) Columns() []Column {
	return append(b.MandatoryColumns(), b.OptionalColumns()...)
}
