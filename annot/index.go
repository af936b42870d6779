package annot

import (
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// IntervalIndex answers overlap queries over a collection's records,
// grouped by sequence id. Records are bucketed per sequence in a
// red-black tree keyed on interval start.
type IntervalIndex struct {
	bySeq map[string]*seqIntervals
}

type seqIntervals struct {
	tree   *redblacktree.Tree
	maxLen uint64
}

type indexEntry struct {
	end     uint64
	records []int
}

// NewIntervalIndex indexes every record of coll by position.
func NewIntervalIndex(coll Collection) *IntervalIndex {
	idx := &IntervalIndex{bySeq: make(map[string]*seqIntervals)}

	for i := 0; i < coll.Len(); i++ {
		rec := coll.Record(i)

		si := idx.bySeq[rec.SeqID()]
		if si == nil {
			si = &seqIntervals{tree: redblacktree.NewWith(utils.UInt64Comparator)}
			idx.bySeq[rec.SeqID()] = si
		}

		start, end := rec.Start(), rec.End()
		if end > start && end-start > si.maxLen {
			si.maxLen = end - start
		}

		if v, found := si.tree.Get(start); found {
			entry := v.(*indexEntry)
			if end > entry.end {
				entry.end = end
			}
			entry.records = append(entry.records, i)
		} else {
			si.tree.Put(start, &indexEntry{end: end, records: []int{i}})
		}
	}

	return idx
}

// Sequences returns the number of distinct sequence ids indexed.
func (idx *IntervalIndex) Sequences() int { return len(idx.bySeq) }

// Query returns the indices of all records on seqID whose interval
// overlaps [startBP, endBP), in ascending start order.
func (idx *IntervalIndex) Query(seqID string, startBP, endBP uint64) []int {
	si := idx.bySeq[seqID]
	if si == nil || endBP <= startBP {
		return nil
	}

	// An overlapping interval starts before endBP and no earlier than
	// startBP minus the longest interval on this sequence.
	var lo uint64
	if startBP > si.maxLen {
		lo = startBP - si.maxLen
	}

	var out []int
	it := si.tree.Iterator()
	for it.Next() {
		start := it.Key().(uint64)
		if start < lo {
			continue
		}
		if start >= endBP {
			break
		}
		entry := it.Value().(*indexEntry)
		if entry.end > startBP {
			out = append(out, entry.records...)
		}
	}
	return out
}
