package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"glspool/internal/job"
	"glspool/internal/lockguard"
	"glspool/internal/pool"
)

var _ pool.Observer = (*Metrics)(nil)

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: 1000,
	}
}

// Metrics はジョブのメトリクスを収集する
type Metrics struct {
	submittedJobs  atomic.Uint64
	rejectedJobs   atomic.Uint64
	completedJobs  atomic.Uint64
	inFlight       atomic.Int64
	totalLatencyNs atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	lastResetTime     time.Time
	windowCompleted   uint64
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = DefaultConfig().MaxLatencySamples
	}
	now := time.Now()
	return &Metrics{
		startTime:         now,
		lastResetTime:     now,
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
	}
}

// RecordSubmit は受け付けたジョブを記録する
func (m *Metrics) RecordSubmit() {
	m.submittedJobs.Add(1)
}

// RecordReject は拒否されたジョブを記録する
func (m *Metrics) RecordReject() {
	m.rejectedJobs.Add(1)
}

// RecordStart はジョブの実行開始を記録する
func (m *Metrics) RecordStart() {
	m.inFlight.Add(1)
}

// RecordCompletion は完了したジョブを記録する
func (m *Metrics) RecordCompletion(latency time.Duration) {
	m.inFlight.Add(-1)
	m.completedJobs.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	g := lockguard.Lock(&m.mu)
	m.windowCompleted++
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	g.Release()
}

// OnSubmit implements pool.Observer.
func (m *Metrics) OnSubmit(job.Job) { m.RecordSubmit() }

// OnReject implements pool.Observer.
func (m *Metrics) OnReject(job.Job, error) { m.RecordReject() }

// OnStart implements pool.Observer.
func (m *Metrics) OnStart(int, job.Job) { m.RecordStart() }

// OnFinish implements pool.Observer.
func (m *Metrics) OnFinish(_ int, _ job.Job, elapsed time.Duration) {
	m.RecordCompletion(elapsed)
}

func (m *Metrics) OnWorkerExit(int) {}
func (m *Metrics) OnFinishing() {}
func (m *Metrics) OnFinished() {}

// SubmittedJobs は受け付けたジョブ数を返す
func (m *Metrics) SubmittedJobs() uint64 {
	return m.submittedJobs.Load()
}

// RejectedJobs は拒否されたジョブ数を返す
func (m *Metrics) RejectedJobs() uint64 {
	return m.rejectedJobs.Load()
}

// CompletedJobs は完了したジョブ数を返す
func (m *Metrics) CompletedJobs() uint64 {
	return m.completedJobs.Load()
}

// InFlight は実行中のジョブ数を返す
func (m *Metrics) InFlight() int64 {
	return m.inFlight.Load()
}

// Throughput は直近ウィンドウの秒間完了ジョブ数を返す
func (m *Metrics) Throughput() float64 {
	defer lockguard.Read(&m.mu).Release()

	elapsed := time.Since(m.lastResetTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.windowCompleted) / elapsed
}

// OverallThroughput は開始からの平均スループットを返す
func (m *Metrics) OverallThroughput() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.completedJobs.Load()) / elapsed
}

// AverageLatency は平均実行時間を返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.completedJobs.Load()
	if total == 0 {
		return 0
	}
	avgNs := m.totalLatencyNs.Load() / total
	return time.Duration(avgNs)
}

// P99Latency はP99実行時間を返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	defer lockguard.Read(&m.mu).Release()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// RejectRate は拒否率を返す（0.0〜1.0）
func (m *Metrics) RejectRate() float64 {
	rejected := m.rejectedJobs.Load()
	total := m.submittedJobs.Load() + rejected
	if total == 0 {
		return 0
	}
	return float64(rejected) / float64(total)
}

// Reset はウィンドウメトリクスをリセットする
func (m *Metrics) Reset() {
	defer lockguard.Write(&m.mu).Release()

	m.windowCompleted = 0
	m.lastResetTime = time.Now()
	m.latencies = m.latencies[:0]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	SubmittedJobs     uint64        `json:"submitted_jobs"`
	RejectedJobs      uint64        `json:"rejected_jobs"`
	CompletedJobs     uint64        `json:"completed_jobs"`
	InFlight          int64         `json:"in_flight"`
	Throughput        float64       `json:"throughput"`
	OverallThroughput float64       `json:"overall_throughput"`
	AverageLatency    time.Duration `json:"average_latency_ns"`
	P99Latency        time.Duration `json:"p99_latency_ns"`
	RejectRate        float64       `json:"reject_rate"`
	Elapsed           time.Duration `json:"elapsed_ns"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SubmittedJobs:     m.SubmittedJobs(),
		RejectedJobs:      m.RejectedJobs(),
		CompletedJobs:     m.CompletedJobs(),
		InFlight:          m.InFlight(),
		Throughput:        m.Throughput(),
		OverallThroughput: m.OverallThroughput(),
		AverageLatency:    m.AverageLatency(),
		P99Latency:        m.P99Latency(),
		RejectRate:        m.RejectRate(),
		Elapsed:           time.Since(m.startTime),
	}
}
