package annot

import (
	"fmt"

	"github.com/gfaview/gfaview/graph"
)

// LabelSet maps annotation labels onto graph nodes. Each record's label
// lands on the node in the middle of the record's step range, and
// duplicate labels on a node are kept once.
type LabelSet struct {
	Name string

	// Column the labels were drawn from.
	Column Column

	PathID graph.PathID

	labels map[graph.NodeID][]string
	nodes  []graph.NodeID
}

// BuildLabelSet resolves every record of coll that lies on the given
// path into node labels. Labels come from col; records outside the
// path's base-pair range are skipped.
//
// When the path name carries a `:start-end` suffix, pathOffset shifts
// record coordinates into the subrange before the lookup.
func BuildLabelSet(name string, g graph.Source, id graph.PathID, pathOffset uint64, col Column, coll Collection) (*LabelSet, error) {
	ls := &LabelSet{
		Name:   name,
		Column: col,
		PathID: id,
		labels: make(map[graph.NodeID][]string),
	}

	pathName := string(g.PathName(id))
	baseName := string(graph.PathBaseName(g.PathName(id)))

	for i := 0; i < coll.Len(); i++ {
		rec := coll.Record(i)
		if rec.SeqID() != baseName {
			continue
		}
		label, ok := rec.GetFirst(col)
		if !ok || label == "" {
			continue
		}

		start, end := rec.Start(), rec.End()
		if end <= pathOffset {
			continue
		}
		if start < pathOffset {
			start = pathOffset
		}
		start -= pathOffset
		end -= pathOffset

		steps, err := g.PathBasePairRange(id, start, end)
		if err != nil {
			return nil, fmt.Errorf("annot: record %d on path %s: %w", i, pathName, err)
		}
		if len(steps) == 0 {
			continue
		}

		mid := steps[len(steps)/2].Handle.ID()
		ls.addLabel(mid, label)
	}

	if len(ls.labels) == 0 {
		return nil, fmt.Errorf("annot: %s on path %s: %w", name, pathName, ErrNoRecords)
	}
	return ls, nil
}

func (ls *LabelSet) addLabel(id graph.NodeID, label string) {
	existing, seen := ls.labels[id]
	if !seen {
		ls.nodes = append(ls.nodes, id)
	}
	for _, l := range existing {
		if l == label {
			return
		}
	}
	ls.labels[id] = append(existing, label)
}

// Nodes returns the labeled nodes in insertion order.
func (ls *LabelSet) Nodes() []graph.NodeID { return ls.nodes }

// Labels returns the labels attached to a node.
func (ls *LabelSet) Labels(id graph.NodeID) []string { return ls.labels[id] }

// Len returns the number of labeled nodes.
func (ls *LabelSet) Len() int { return len(ls.labels) }
