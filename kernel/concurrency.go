package kernel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// rowJob is a contiguous range of stand rows to process with a single
// callback, submitted to the persistent worker pool.
type rowJob struct {
	start, end int
	fn         func(int)
	wg         *sync.WaitGroup
}

var (
	poolMu  sync.Mutex
	rowChan chan rowJob
)

// Start prepares the package for row-parallel compute_pools/
// compute_flux calls, using a persistent pool of cpu goroutines
// (adapting the worker-pool pattern of a channel of jobs feeding a
// fixed goroutine count). The default (zero) uses all available CPUs.
// Call [End] to stop the goroutines once no more calls are expected.
//
// Start is optional: without it, each kernel call parallelizes with a
// one-shot errgroup sized to GOMAXPROCS.
func Start(cpu int) {
	poolMu.Lock()
	defer poolMu.Unlock()
	if cpu == 0 {
		cpu = runtime.NumCPU()
	}
	rowChan = make(chan rowJob, cpu*2)
	for i := 0; i < cpu; i++ {
		go runRowWorker(rowChan)
	}
}

func runRowWorker(ch chan rowJob) {
	for j := range ch {
		for s := j.start; s < j.end; s++ {
			j.fn(s)
		}
		j.wg.Done()
	}
}

// End closes the worker pool started by [Start]. It is a no-op if
// Start was never called.
func End() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if rowChan != nil {
		close(rowChan)
		rowChan = nil
	}
}

// parallelRows applies fn to every row index in [0,n), using the
// persistent pool if [Start] has been called, or a one-shot errgroup
// sized to GOMAXPROCS otherwise. Each stand's row and flux entries are
// independent, so no locking is required between calls to fn.
func parallelRows(n int, fn func(int)) error {
	if n == 0 {
		return nil
	}
	poolMu.Lock()
	ch := rowChan
	poolMu.Unlock()
	if ch != nil {
		return parallelRowsPool(ch, n, fn)
	}
	return parallelRowsOneShot(n, fn)
}

func parallelRowsPool(ch chan rowJob, n int, fn func(int)) error {
	workers := cap(ch) / 2
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		ch <- rowJob{start: start, end: end, fn: fn, wg: &wg}
	}
	wg.Wait()
	return nil
}

func parallelRowsOneShot(n int, fn func(int)) error {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for s := start; s < end; s++ {
				fn(s)
			}
			return nil
		})
	}
	return g.Wait()
}
