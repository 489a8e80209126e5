package geoarrow

import (
	"fmt"
	"sync"
)

// PolygonRings is a self-contained, serializable description of one
// polygon: interleaved coordinates for every ring back to back, and the
// exclusive end index of each ring, in points, relative to the polygon's
// first point. The first ring is the exterior; the rest are holes.
type PolygonRings struct {
	Coords   []float64
	RingEnds []int32
	Dim      int
}

// Points returns the polygon's total point count.
func (p PolygonRings) Points() int {
	return len(p.Coords) / p.Dim
}

// TriangulateFunc turns one polygon into triangle vertex indices, earcut
// style. Returned indices are local to the polygon's points.
type TriangulateFunc func(p PolygonRings) ([]uint32, error)

// Triangulator owns the dispatch of polygon triangulation work, optionally
// across a pool of worker goroutines. It is an explicit handle with an
// explicit lifecycle: create it for a render session, Close it when the
// session ends. With zero workers everything runs on the calling goroutine;
// both paths produce identical results, so the synchronous path is always a
// valid fallback where spawning goroutines is undesirable.
type Triangulator struct {
	fn      TriangulateFunc
	workers int
	jobs    chan triangulateTask
	once    sync.Once
}

type triangulateTask struct {
	poly PolygonRings
	idx  int
	out  [][]uint32
	errs []error
	wg   *sync.WaitGroup
}

// NewTriangulator returns a triangulator around fn. workers > 0 starts that
// many worker goroutines; workers <= 0 keeps everything synchronous.
func NewTriangulator(fn TriangulateFunc, workers int) *Triangulator {
	t := &Triangulator{fn: fn, workers: workers}
	if workers > 0 {
		t.jobs = make(chan triangulateTask)
		for i := 0; i < workers; i++ {
			go func() {
				for task := range t.jobs {
					task.out[task.idx], task.errs[task.idx] = fn(task.poly)
					task.wg.Done()
				}
			}()
		}
	}
	return t
}

// Close shuts the worker goroutines down. The triangulator must not be used
// after Close; call it once all TriangulateAll calls have returned.
func (t *Triangulator) Close() {
	t.once.Do(func() {
		if t.jobs != nil {
			close(t.jobs)
			t.jobs = nil
		}
	})
}

// TriangulateAll triangulates every polygon and returns the results in
// request order, regardless of completion order across workers. A polygon
// that fails on the parallel path is retried synchronously; only a failure
// of both is an error, and it is fatal for the whole batch.
func (t *Triangulator) TriangulateAll(polys []PolygonRings) ([][]uint32, error) {
	if t == nil || t.fn == nil {
		return nil, ErrNoTriangulator
	}
	out := make([][]uint32, len(polys))
	errs := make([]error, len(polys))

	if t.jobs == nil || len(polys) < 2 {
		for i, p := range polys {
			var err error
			if out[i], err = t.fn(p); err != nil {
				return nil, fmt.Errorf("geoarrow: triangulating polygon %d: %w", i, err)
			}
		}
		return out, nil
	}

	var wg sync.WaitGroup
	wg.Add(len(polys))
	for i, p := range polys {
		t.jobs <- triangulateTask{poly: p, idx: i, out: out, errs: errs, wg: &wg}
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if out[i], err = t.fn(polys[i]); err != nil {
			return nil, fmt.Errorf("geoarrow: triangulating polygon %d: %w", i, err)
		}
	}
	return out, nil
}
