// Package lockguard provides scope-bound lock acquisition.
//
// A Guard is bound to exactly one lock. It is created already holding the
// lock and releases it exactly once, which makes it safe to pair with defer.
//
// # Basic Usage
//
//	g := lockguard.Lock(&mu)
//	defer g.Release()
//
//	// run something without the lock, reacquiring it afterwards
//	g.Unlocked(func() {
//	    slowCall()
//	})
//
// # Read/Write Locks
//
//	defer lockguard.Read(&rw).Release()  // shared
//	defer lockguard.Write(&rw).Release() // exclusive
//
// Only exclusive guards support Unlocked; calling it on a Read guard panics
// with ErrShared.
//
// Guards are not reentrant: locking the same sync.Mutex twice from one
// goroutine deadlocks, exactly as it would without a guard.
package lockguard
