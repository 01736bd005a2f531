package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"glspool/internal/job"
	"glspool/internal/pool"
)

func TestNew(t *testing.T) {
	m := New()
	if m.CompletedJobs() != 0 {
		t.Errorf("expected 0 completed jobs, got %d", m.CompletedJobs())
	}
	if m.maxLatencySamples != 1000 {
		t.Errorf("expected 1000 samples, got %d", m.maxLatencySamples)
	}
}

func TestNewWithConfig(t *testing.T) {
	m := NewWithConfig(Config{MaxLatencySamples: 10})
	for range 20 {
		m.RecordStart()
		m.RecordCompletion(time.Millisecond)
	}
	if len(m.latencies) != 10 {
		t.Errorf("expected 10 samples kept, got %d", len(m.latencies))
	}

	m = NewWithConfig(Config{})
	if m.maxLatencySamples != 1000 {
		t.Errorf("expected default samples, got %d", m.maxLatencySamples)
	}
}

func TestRecordCompletion(t *testing.T) {
	m := New()

	m.RecordSubmit()
	m.RecordSubmit()
	m.RecordStart()
	m.RecordStart()

	if m.InFlight() != 2 {
		t.Errorf("expected 2 in flight, got %d", m.InFlight())
	}

	m.RecordCompletion(10 * time.Millisecond)
	m.RecordCompletion(20 * time.Millisecond)

	if m.SubmittedJobs() != 2 {
		t.Errorf("expected 2 submitted, got %d", m.SubmittedJobs())
	}
	if m.CompletedJobs() != 2 {
		t.Errorf("expected 2 completed, got %d", m.CompletedJobs())
	}
	if m.InFlight() != 0 {
		t.Errorf("expected 0 in flight, got %d", m.InFlight())
	}
	if avg := m.AverageLatency(); avg != 15*time.Millisecond {
		t.Errorf("expected average 15ms, got %v", avg)
	}
}

func TestRejectRate(t *testing.T) {
	m := New()
	if m.RejectRate() != 0 {
		t.Errorf("expected 0 reject rate, got %f", m.RejectRate())
	}

	for range 3 {
		m.RecordSubmit()
	}
	m.RecordReject()

	if rate := m.RejectRate(); rate != 0.25 {
		t.Errorf("expected 0.25, got %f", rate)
	}
}

func TestP99Latency(t *testing.T) {
	m := New()
	if m.P99Latency() != 0 {
		t.Error("expected 0 P99 with no samples")
	}

	for i := 1; i <= 100; i++ {
		m.RecordStart()
		m.RecordCompletion(time.Duration(i) * time.Millisecond)
	}

	if p99 := m.P99Latency(); p99 != 100*time.Millisecond {
		t.Errorf("expected P99 100ms, got %v", p99)
	}
}

func TestReset(t *testing.T) {
	m := New()
	m.RecordStart()
	m.RecordCompletion(time.Millisecond)

	m.Reset()

	if m.P99Latency() != 0 {
		t.Error("expected samples cleared after reset")
	}
	if m.CompletedJobs() != 1 {
		t.Error("expected totals to survive reset")
	}
}

func TestSnapshot(t *testing.T) {
	m := New()
	m.RecordSubmit()
	m.RecordStart()
	m.RecordCompletion(5 * time.Millisecond)

	snap := m.Snapshot()
	if snap.SubmittedJobs != 1 || snap.CompletedJobs != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.AverageLatency != 5*time.Millisecond {
		t.Errorf("expected 5ms average, got %v", snap.AverageLatency)
	}
	if snap.Elapsed <= 0 {
		t.Error("expected positive elapsed time")
	}
}

func TestConcurrentRecord(t *testing.T) {
	m := New()
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordSubmit()
				m.RecordStart()
				m.RecordCompletion(time.Microsecond)
				_ = m.P99Latency()
			}
		}()
	}
	wg.Wait()

	if m.CompletedJobs() != 1000 {
		t.Errorf("expected 1000 completed, got %d", m.CompletedJobs())
	}
}

func TestMetricsAsObserver(t *testing.T) {
	m := New()
	p, err := pool.NewWithConfig(pool.Config{NumWorkers: 4, Observer: m})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for range 100 {
		_ = p.Go(func() {})
	}
	p.Finish()
	if err := p.Go(func() {}); !errors.Is(err, pool.ErrFinishing) {
		t.Fatalf("expected ErrFinishing, got %v", err)
	}

	if m.SubmittedJobs() != 100 {
		t.Errorf("expected 100 submitted, got %d", m.SubmittedJobs())
	}
	if m.CompletedJobs() != 100 {
		t.Errorf("expected 100 completed, got %d", m.CompletedJobs())
	}
	if m.RejectedJobs() != 1 {
		t.Errorf("expected 1 rejected, got %d", m.RejectedJobs())
	}
	if m.InFlight() != 0 {
		t.Errorf("expected 0 in flight, got %d", m.InFlight())
	}
}

func TestObserverIgnoresJob(t *testing.T) {
	m := New()
	var j job.Job
	m.OnSubmit(j)
	m.OnStart(0, j)
	m.OnFinish(0, j, time.Millisecond)
	m.OnWorkerExit(0)
	m.OnFinishing()
	m.OnFinished()

	if m.CompletedJobs() != 1 {
		t.Errorf("expected 1 completed, got %d", m.CompletedJobs())
	}
}
