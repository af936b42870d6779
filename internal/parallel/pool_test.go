package parallel

import (
	"sync/atomic"
	"testing"
)

func TestExecuteAllRunsEverything(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var ran atomic.Int32
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { ran.Add(1) }
	}
	p.ExecuteAll(work)

	if got := ran.Load(); got != 100 {
		t.Errorf("ran %d items, want 100", got)
	}
}

func TestExecuteAllEmpty(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()
	p.ExecuteAll(nil)
}

func TestDefaultWorkerCount(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want at least 1", p.Workers())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()
	if p.IsRunning() {
		t.Error("pool still running after Close")
	}
	// Work after Close is dropped, not deadlocked.
	p.ExecuteAll([]func(){func() {}})
}

func TestUnevenLoadCompletes(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var ran atomic.Int32
	work := make([]func(), 16)
	for i := range work {
		i := i
		work[i] = func() {
			if i == 0 {
				for j := 0; j < 1000; j++ {
					ran.Add(1)
					ran.Add(-1)
				}
			}
			ran.Add(1)
		}
	}
	p.ExecuteAll(work)

	if got := ran.Load(); got != 16 {
		t.Errorf("ran %d items, want 16", got)
	}
}
