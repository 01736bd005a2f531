// Package metrics provides job metrics collection and reporting.
//
// Metrics collects statistics about job execution time, accepted/rejected
// submissions and throughput. It implements pool.Observer, so it can be
// attached to a pool directly. It is thread-safe and optimized for
// high-concurrency scenarios.
//
// # Basic Usage
//
//	m := metrics.New()
//	p, _ := pool.NewWithConfig(pool.Config{NumWorkers: 8, Observer: m})
//
//	// ... submit jobs, p.Finish() ...
//
//	fmt.Printf("Completed: %d, Throughput: %.2f/s, P99: %v\n",
//	    m.CompletedJobs(), m.OverallThroughput(), m.P99Latency())
//
//	// Get a snapshot
//	snap := m.Snapshot()
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	config := metrics.Config{
//	    MaxLatencySamples: 5000, // More samples for P99 accuracy
//	}
//	m := metrics.NewWithConfig(config)
//
// # Prometheus
//
// Collector mirrors the same events into Prometheus collectors registered on
// a caller-supplied registerer:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.NewCollector(reg, "glspool")
//	p, _ := pool.NewWithConfig(pool.Config{Observer: pool.Observers(m, c)})
//
// # Thread Safety
//
// All operations use atomic counters or a RWMutex and are safe for
// concurrent access.
package metrics
