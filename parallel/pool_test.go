package parallel

import (
	"sync/atomic"
	"testing"
)

func TestStartSingleWorkerRunsInline(t *testing.T) {
	p := Start(1)
	defer p.Close()

	if p.Workers() != 1 {
		t.Fatalf("Workers() = %d, want 1", p.Workers())
	}

	var n atomic.Int32
	p.RunAll([]func(){
		func() { n.Add(1) },
		func() { n.Add(1) },
	})
	if n.Load() != 2 {
		t.Errorf("n = %d, want 2", n.Load())
	}
}

func TestRunAllWaitsForEveryTask(t *testing.T) {
	p := Start(4)
	defer p.Close()

	const count = 100
	var n atomic.Int64
	fns := make([]func(), count)
	for i := range fns {
		fns[i] = func() { n.Add(1) }
	}
	p.RunAll(fns)

	if got := n.Load(); got != count {
		t.Errorf("n = %d, want %d", got, count)
	}
}

func TestRunAllCanBeCalledRepeatedly(t *testing.T) {
	p := Start(2)
	defer p.Close()

	for i := 0; i < 5; i++ {
		var n atomic.Int32
		p.RunAll([]func(){
			func() { n.Add(1) },
			func() { n.Add(1) },
			func() { n.Add(1) },
		})
		if n.Load() != 3 {
			t.Fatalf("iteration %d: n = %d, want 3", i, n.Load())
		}
	}
}

func TestStartZeroUsesGOMAXPROCS(t *testing.T) {
	p := Start(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want >= 1", p.Workers())
	}
}

func TestWorkersNilPoolIsOne(t *testing.T) {
	if got := Workers(nil); got != 1 {
		t.Errorf("Workers(nil) = %d, want 1", got)
	}
}

func TestRunAllEmptySlice(t *testing.T) {
	p := Start(4)
	defer p.Close()
	p.RunAll(nil)
}
