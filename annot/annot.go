// Package annot parses genomic annotation files (GFF3 and BED) and maps
// their records onto graph nodes through path coordinates.
package annot

import (
	"errors"
	"fmt"
	"strconv"
)

// Annotation file errors.
var (
	ErrBadStrand = errors.New("annot: invalid strand")
	ErrNoRecords = errors.New("annot: no records")
)

// Strand is a record's orientation on its reference sequence.
type Strand int8

const (
	StrandNone Strand = iota
	StrandForward
	StrandReverse
)

// ParseStrand parses a GFF3/BED strand field. "." and "?" mean unknown.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return StrandForward, nil
	case "-":
		return StrandReverse, nil
	case ".", "?":
		return StrandNone, nil
	}
	return StrandNone, fmt.Errorf("%w: %q", ErrBadStrand, s)
}

func (s Strand) String() string {
	switch s {
	case StrandForward:
		return "+"
	case StrandReverse:
		return "-"
	default:
		return "."
	}
}

// ColumnKind discriminates the addressable columns of a record.
type ColumnKind uint8

const (
	ColSeqID ColumnKind = iota
	ColStart
	ColEnd
	ColSource
	ColType
	ColScore
	ColStrand
	ColFrame
	// ColAttribute addresses a GFF3 attribute by tag name.
	ColAttribute
	// ColIndex addresses a BED optional column by position.
	ColIndex
	// ColHeader addresses a BED optional column by its header name.
	ColHeader
)

// Column identifies one addressable column of an annotation record.
// Name is set for ColAttribute and ColHeader, Index for ColIndex and
// ColHeader.
type Column struct {
	Kind  ColumnKind
	Name  string
	Index int
}

func (c Column) String() string {
	switch c.Kind {
	case ColSeqID:
		return "seq_id"
	case ColStart:
		return "start"
	case ColEnd:
		return "end"
	case ColSource:
		return "source"
	case ColType:
		return "type"
	case ColScore:
		return "score"
	case ColStrand:
		return "strand"
	case ColFrame:
		return "frame"
	case ColAttribute, ColHeader:
		return c.Name
	case ColIndex:
		return strconv.Itoa(c.Index)
	}
	return "?"
}

// Record is one annotation row: a half-open base-pair interval
// [Start, End) on the sequence named by SeqID, plus extra columns.
type Record interface {
	SeqID() string
	Start() uint64
	End() uint64

	// Score returns the record's numeric score if it has one.
	Score() (float64, bool)

	// GetFirst returns the first value of the column, if present.
	GetFirst(col Column) (string, bool)

	// GetAll returns every value of the column.
	GetAll(col Column) []string
}

// Collection is a parsed annotation file.
type Collection interface {
	FileName() string
	Len() int
	Record(i int) Record

	// Columns lists every addressable column, mandatory first.
	Columns() []Column
	MandatoryColumns() []Column
	OptionalColumns() []Column
}
