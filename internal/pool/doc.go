// Package pool provides a fixed-size worker pool with an orderly shutdown
// barrier.
//
// A Pool starts its workers at construction. Jobs are appended to a single
// FIFO queue protected by one mutex; each submission wakes exactly one idle
// worker. Workers run jobs outside the lock.
//
// # Basic Usage
//
//	p, err := pool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for i := range 100 {
//	    if err := p.Go(func() { process(i) }); err != nil {
//	        return err
//	    }
//	}
//
//	// Block until every queued and running job has completed.
//	p.Finish()
//
// # Shutdown
//
// Finish is idempotent. Submissions after Finish has been requested fail with
// ErrFinishing. Finish must not be called from inside a job, since it waits
// for the worker running that job. A pool that becomes unreachable without
// Finish or Close is shut down by a runtime cleanup, so its workers never
// outlive it.
//
// # Failures
//
// A job that panics is not recovered by the pool; the panic terminates the
// process. Broken internal invariants are reported through the configured
// fatal.Reporter, which terminates the process by default.
package pool
