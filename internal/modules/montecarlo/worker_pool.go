package montecarlo

import (
	"context"
	"sync"

	"github.com/aristath/capstack/internal/domain"
)

// WorkerPool manages a pool of worker goroutines for parallel iteration runs
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// jobItem represents a single iteration job
type jobItem struct {
	index int
}

// resultItem represents the outcome of one iteration job
type resultItem struct {
	index   int
	draws   map[string]float64
	kpis    domain.KPISnapshot
	err     error
	skipped bool
}

// RunBatch runs n iterations across the workers and returns the outcomes in index order.
//
// Workers check ctx before each job; jobs picked up after cancellation are marked skipped.
// onResult, when set, is called from the collecting goroutine as each outcome arrives.
func (wp *WorkerPool) RunBatch(
	ctx context.Context,
	n int,
	run func(index int) resultItem,
	onResult func(item resultItem),
) []resultItem {
	if n == 0 {
		return []resultItem{}
	}

	// Create channels for work distribution and result collection
	jobs := make(chan jobItem, n)
	results := make(chan resultItem, n)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than iterations
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, run)
		}()
	}

	for idx := 0; idx < n; idx++ {
		jobs <- jobItem{index: idx}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultSlice := make([]resultItem, n)
	for result := range results {
		resultSlice[result.index] = result
		if onResult != nil {
			onResult(result)
		}
	}
	return resultSlice
}

// worker is the worker goroutine that processes iteration jobs
func worker(
	ctx context.Context,
	jobs <-chan jobItem,
	results chan<- resultItem,
	run func(index int) resultItem,
) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- resultItem{index: job.index, skipped: true}
			continue
		}
		item := run(job.index)
		item.index = job.index
		results <- item
	}
}
