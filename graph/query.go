package graph

// Queries the GUI issues against the graph run on a dedicated goroutine
// so a slow lookup (step coverage over a huge node) never stalls the
// frame loop. Requests and responses travel over a rendezvous pair of
// channels; the blocking helper is for non-frame callers.

// StatsRequest selects which statistics a query computes.
type StatsRequest struct {
	Kind StatsKind
	Node NodeID
	Path PathID
}

// StatsKind enumerates graph query kinds.
type StatsKind int

const (
	// StatsGraph summarizes the whole graph.
	StatsGraph StatsKind = iota
	// StatsNode summarizes a single node.
	StatsNode
	// StatsPath summarizes a single path.
	StatsPath
	// StatsNodeSeq fetches a node's sequence.
	StatsNodeSeq
)

// StatsResponse carries query results. Fields are populated according
// to the request kind; queries for unknown ids return zero values
// rather than errors.
type StatsResponse struct {
	Kind StatsKind

	NodeCount int
	EdgeCount int
	PathCount int
	TotalLen  uint64

	Node      NodeID
	NodeLen   int
	DegreeIn  int
	DegreeOut int
	Coverage  int // total steps on the node over all paths

	Path      PathID
	StepCount int
	PathLen   uint64

	Seq []byte
}

// QueryWorker serves graph statistics on its own goroutine.
type QueryWorker struct {
	graph *Graph
	req   chan StatsRequest
	resp  chan StatsResponse
	stop  chan struct{}
}

// NewQueryWorker starts a query worker over the given graph.
func NewQueryWorker(g *Graph) *QueryWorker {
	w := &QueryWorker{
		graph: g,
		req:   make(chan StatsRequest),
		resp:  make(chan StatsResponse),
		stop:  make(chan struct{}),
	}
	go w.run()
	return w
}

// RequestBlocking issues a query and waits for its response.
func (w *QueryWorker) RequestBlocking(r StatsRequest) StatsResponse {
	select {
	case w.req <- r:
		return <-w.resp
	case <-w.stop:
		return StatsResponse{Kind: r.Kind}
	}
}

// Close stops the worker.
func (w *QueryWorker) Close() { close(w.stop) }

func (w *QueryWorker) run() {
	for {
		select {
		case <-w.stop:
			return
		case r := <-w.req:
			w.resp <- w.serve(r)
		}
	}
}

func (w *QueryWorker) serve(r StatsRequest) StatsResponse {
	g := w.graph
	out := StatsResponse{Kind: r.Kind}

	switch r.Kind {
	case StatsGraph:
		out.NodeCount = g.NodeCount()
		out.EdgeCount = g.EdgeCount()
		out.PathCount = g.PathCount()
		out.TotalLen = g.TotalLength()

	case StatsNode:
		out.Node = r.Node
		out.NodeLen = g.NodeLen(r.Node)
		for _, e := range g.edges {
			if e.To.ID() == r.Node {
				out.DegreeIn++
			}
			if e.From.ID() == r.Node {
				out.DegreeOut++
			}
		}
		for _, steps := range g.pathSteps {
			for _, s := range steps {
				if s.Handle.ID() == r.Node {
					out.Coverage++
				}
			}
		}

	case StatsPath:
		out.Path = r.Path
		if int(r.Path) < len(g.pathSteps) {
			out.StepCount = len(g.pathSteps[r.Path])
			out.PathLen = g.PathLen(r.Path)
		}

	case StatsNodeSeq:
		out.Node = r.Node
		out.Seq = g.Sequence(NewHandle(r.Node, false))
		out.NodeLen = len(out.Seq)
	}

	return out
}
