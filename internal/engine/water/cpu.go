package water

import (
	"runtime"
	"sync"
)

// cpuBackend splits the rows of each step across persistent worker
// goroutines. Step blocks until every worker has finished its rows.
type cpuBackend struct {
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	step    int
	pending int
	closed  bool
	wg      sync.WaitGroup

	// Work for the current step, guarded by mu
	cur  *Grid
	next *Grid
	in   stepInput
}

func newCPUBackend(workers, rows int) *cpuBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		workers = 1
	}
	b := &cpuBackend{workers: workers}
	b.cond = sync.NewCond(&b.mu)
	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.workerLoop(i)
	}
	return b
}

func (b *cpuBackend) Name() string {
	return "cpu"
}

// workerLoop waits for each new step and processes its share of rows.
func (b *cpuBackend) workerLoop(index int) {
	defer b.wg.Done()
	lastStep := 0
	b.mu.Lock()
	for {
		for b.step == lastStep && !b.closed {
			b.cond.Wait()
		}
		if b.step == lastStep {
			b.mu.Unlock()
			return
		}
		lastStep = b.step
		cur, next, in := b.cur, b.next, b.in
		b.mu.Unlock()

		j0, j1 := rowRange(index, b.workers, cur.Size)
		stepRows(cur, next, in, j0, j1)

		b.mu.Lock()
		b.pending--
		if b.pending == 0 {
			b.cond.Broadcast()
		}
	}
}

// rowRange returns the rows owned by worker index out of count.
func rowRange(index, count, rows int) (int, int) {
	return index * rows / count, (index + 1) * rows / count
}

func (b *cpuBackend) Step(cur, next *Grid, in stepInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.cur, b.next, b.in = cur, next, in
	b.pending = b.workers
	b.step++
	b.cond.Broadcast()
	for b.pending > 0 {
		b.cond.Wait()
	}
	b.cur, b.next = nil, nil
	return nil
}

func (b *cpuBackend) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
	b.wg.Wait()
}
