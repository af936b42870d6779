package overlay

import (
	"fmt"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/annot"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/internal/parallel"
)

// Builder turns annotation records into per-node overlays by mapping
// each record's base-pair interval onto the nodes of a path.
//
// Record mapping runs on a worker pool; the fold into the dense node
// buffer is sequential in record order, so overlapping records resolve
// deterministically (last record wins).
type Builder struct {
	graph graph.Source
	pool  *parallel.WorkerPool
}

// NewBuilder creates a builder backed by a pool of workers. workers <= 0
// uses one worker per CPU.
func NewBuilder(g graph.Source, workers int) *Builder {
	return &Builder{graph: g, pool: parallel.NewWorkerPool(workers)}
}

// Close stops the builder's worker pool.
func (b *Builder) Close() { b.pool.Close() }

// recordHit is one record's contribution to an overlay.
type recordHit struct {
	ids   []graph.NodeID
	color gfaview.RGBA
	value float32
	ok    bool
}

// BuildRGB builds a color overlay from every record of coll that lies on
// the given path.
func (b *Builder) BuildRGB(name string, id graph.PathID, coll annot.Collection, colorFn ColorFunc) (*Overlay, error) {
	hits, err := b.mapRecords(id, coll, func(rec annot.Record, hit *recordHit) {
		hit.color, hit.ok = colorFn(rec)
	})
	if err != nil {
		return nil, err
	}

	ov := &Overlay{
		Name:   name,
		Kind:   KindRGB,
		Colors: make([]gfaview.RGBA, b.graph.NodeCount()),
	}
	for i := range ov.Colors {
		ov.Colors[i] = DefaultColor
	}
	for _, hit := range hits {
		for _, nid := range hit.ids {
			ov.Colors[nid-1] = hit.color
		}
	}

	gfaview.Logger().Info("overlay built", "name", name, "kind", ov.Kind, "records", coll.Len())
	return ov, nil
}

// BuildValue builds a scalar overlay. Untouched nodes get value zero.
func (b *Builder) BuildValue(name string, id graph.PathID, coll annot.Collection, valueFn ValueFunc) (*Overlay, error) {
	hits, err := b.mapRecords(id, coll, func(rec annot.Record, hit *recordHit) {
		hit.value, hit.ok = valueFn(rec)
	})
	if err != nil {
		return nil, err
	}

	ov := &Overlay{
		Name:   name,
		Kind:   KindValue,
		Values: make([]float32, b.graph.NodeCount()),
	}
	for _, hit := range hits {
		for _, nid := range hit.ids {
			ov.Values[nid-1] = hit.value
		}
	}

	gfaview.Logger().Info("overlay built", "name", name, "kind", ov.Kind, "records", coll.Len())
	return ov, nil
}

// mapRecords resolves every matching record to its node ids in parallel.
// The returned slice is indexed by record, so a sequential fold over it
// is deterministic.
func (b *Builder) mapRecords(id graph.PathID, coll annot.Collection, eval func(rec annot.Record, hit *recordHit)) ([]recordHit, error) {
	pathName := b.graph.PathName(id)
	baseName := string(graph.PathBaseName(pathName))
	offset, _ := graph.PathNameOffset(pathName)

	hits := make([]recordHit, coll.Len())
	errs := make([]error, b.pool.Workers())

	shard := func(w int) func() {
		return func() {
			for i := w; i < coll.Len(); i += b.pool.Workers() {
				rec := coll.Record(i)
				if rec.SeqID() != baseName {
					continue
				}

				eval(rec, &hits[i])
				if !hits[i].ok {
					continue
				}

				start, end := rec.Start(), rec.End()
				if end <= offset {
					hits[i].ok = false
					continue
				}
				if start < offset {
					start = offset
				}

				steps, err := b.graph.PathBasePairRange(id, start-offset, end-offset)
				if err != nil {
					errs[w] = fmt.Errorf("overlay: record %d: %w", i, err)
					return
				}
				for _, s := range steps {
					hits[i].ids = append(hits[i].ids, s.Handle.ID())
				}
			}
		}
	}

	work := make([]func(), b.pool.Workers())
	for w := range work {
		work[w] = shard(w)
	}
	b.pool.ExecuteAll(work)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := hits[:0]
	for i := range hits {
		if hits[i].ok && len(hits[i].ids) > 0 {
			out = append(out, hits[i])
		}
	}
	return out, nil
}
