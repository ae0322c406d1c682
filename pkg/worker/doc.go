// Package worker provides a generic bounded worker pool.
//
// The CLI uses it to run scenario files concurrently: each scenario gets its
// own buffer, so jobs share nothing and the pool only bounds parallelism.
//
//	pool, err := worker.NewPool(4, len(jobs), func(ctx context.Context, j job) error {
//		return j.run(ctx)
//	})
//	_ = pool.Start(ctx)
//	for _, j := range jobs {
//		_ = pool.Submit(j) // non-blocking; ErrQueueFull when at capacity
//	}
//	_ = pool.Stop(time.Minute) // drains the queue
//
// Lifecycle and queue errors are plain sentinels compared with errors.Is.
package worker
