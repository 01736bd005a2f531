package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"glspool/internal/events"
	"glspool/internal/lockguard"
	"glspool/internal/logger"
	"glspool/internal/metrics"
	"glspool/internal/pool"
)

// ErrAlreadyRunning は実行中のエンジンを再度実行した場合のエラー
var ErrAlreadyRunning = errors.New("scenario is already running")

// Config はシナリオの設定
type Config struct {
	Name        string        // シナリオ名
	Description string        // 説明
	Workers     int           // プールのワーカー数
	Jobs        int           // 投入するジョブ数
	Submitters  int           // 投入側ゴルーチン数
	JobDuration time.Duration // 1ジョブあたりの処理時間

	SubmitInterval time.Duration // 投入側ごとの投入間隔（0で連続投入）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		Description: "Default scenario",
		Workers:     4,
		Jobs:        200,
		Submitters:  1,
		JobDuration: time.Millisecond,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be non-negative, got %d", c.Jobs)
	}
	if c.Submitters < 1 {
		return fmt.Errorf("submitters must be at least 1, got %d", c.Submitters)
	}
	if c.JobDuration < 0 {
		return fmt.Errorf("job duration must be non-negative, got %v", c.JobDuration)
	}
	if c.SubmitInterval < 0 {
		return fmt.Errorf("submit interval must be non-negative, got %v", c.SubmitInterval)
	}
	return nil
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string        `json:"scenario_name"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration_ns"`
	Workers      int           `json:"workers"`
	Interrupted  bool          `json:"interrupted"`

	// ジョブ統計
	RequestedJobs int           `json:"requested_jobs"`
	SubmittedJobs uint64        `json:"submitted_jobs"`
	RejectedJobs  uint64        `json:"rejected_jobs"`
	CompletedJobs uint64        `json:"completed_jobs"`
	AvgLatency    time.Duration `json:"avg_latency_ns"`
	P99Latency    time.Duration `json:"p99_latency_ns"`
	Throughput    float64       `json:"throughput"`

	// 検証結果
	MissingJobs    int  `json:"missing_jobs"`
	DuplicatedJobs int  `json:"duplicated_jobs"`
	FIFOChecked    bool `json:"fifo_checked"`
	FIFOViolations int  `json:"fifo_violations"`
}

// Verified は全ジョブがちょうど1回ずつ実行されたかを返す
func (r *Result) Verified() bool {
	return r.MissingJobs == 0 && r.DuplicatedJobs == 0 && r.FIFOViolations == 0
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config    Config
	eventBus  *events.Bus
	collector *metrics.Collector

	mu      sync.RWMutex
	running bool
	metrics *metrics.Metrics
	pool    *pool.Pool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	defer lockguard.Write(&e.mu).Release()
	e.eventBus = bus
}

// SetCollector は Prometheus コレクタを設定する
func (e *Engine) SetCollector(c *metrics.Collector) {
	defer lockguard.Write(&e.mu).Release()
	e.collector = c
}

// Config はシナリオ設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// Run はシナリオを実行する。
// ctx がキャンセルされると以降の投入を止めるが、投入済みのジョブは最後まで実行される。
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	g := lockguard.Write(&e.mu)
	if e.running {
		g.Release()
		return nil, ErrAlreadyRunning
	}
	e.running = true
	m := metrics.New()
	observers := []pool.Observer{m}
	if e.eventBus != nil {
		observers = append(observers, events.NewObserver(e.eventBus))
	}
	if e.collector != nil {
		e.collector.SetWorkers(e.config.Workers)
		observers = append(observers, e.collector)
	}
	p, err := pool.NewWithConfig(pool.Config{
		NumWorkers: e.config.Workers,
		Observer:   pool.Observers(observers...),
	})
	if err != nil {
		e.running = false
		g.Release()
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	e.metrics = m
	e.pool = p
	if e.collector != nil {
		if err := e.collector.RegisterQueueDepth(p.QueueSize); err != nil {
			logger.Warn("scenario", "queue depth gauge not registered: %v", err)
		}
	}
	g.Release()

	defer lockguard.With(&e.mu, func() {
		e.running = false
	})

	logger.Info("scenario", "=== Scenario '%s' started ===", e.config.Name)
	logger.Info("scenario", "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName:  e.config.Name,
		StartTime:     time.Now(),
		Workers:       e.config.Workers,
		RequestedJobs: e.config.Jobs,
	}

	t := newTracker(e.config.Jobs)
	submitErr := e.submitAll(ctx, p, t)

	// 投入済みジョブの完了を待つ
	p.Finish()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	// 投入が止められた場合のみ中断扱い。排出中のキャンセルは含めない
	result.Interrupted = errors.Is(submitErr, context.Canceled) ||
		errors.Is(submitErr, context.DeadlineExceeded)
	e.collectResults(result, m, t)

	if submitErr != nil && !result.Interrupted {
		return result, fmt.Errorf("submit failed: %w", submitErr)
	}

	logger.Info("scenario", "=== Scenario '%s' completed: %d/%d jobs ===",
		e.config.Name, result.CompletedJobs, result.RequestedJobs)

	return result, nil
}

// submitAll は Submitters 個のゴルーチンでジョブを投入する
func (e *Engine) submitAll(ctx context.Context, p *pool.Pool, t *tracker) error {
	g, gctx := errgroup.WithContext(ctx)
	submitters := e.config.Submitters
	jobDuration := e.config.JobDuration
	interval := e.config.SubmitInterval

	for s := range submitters {
		g.Go(func() error {
			for i := s; i < t.size(); i += submitters {
				if err := gctx.Err(); err != nil {
					return err
				}
				idx := i
				t.submitted[idx].Store(true)
				err := p.Go(func() {
					t.start(idx)
					if jobDuration > 0 {
						time.Sleep(jobDuration)
					}
				})
				if err != nil {
					t.submitted[idx].Store(false)
					return fmt.Errorf("job %d: %w", idx, err)
				}
				if interval > 0 {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(interval):
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result, m *metrics.Metrics, t *tracker) {
	snapshot := m.Snapshot()
	result.SubmittedJobs = snapshot.SubmittedJobs
	result.RejectedJobs = snapshot.RejectedJobs
	result.CompletedJobs = snapshot.CompletedJobs
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency
	result.Throughput = snapshot.OverallThroughput

	result.MissingJobs, result.DuplicatedJobs = t.verify()

	// FIFO は投入順が一意に決まる場合のみ検証できる
	if e.config.Workers == 1 && e.config.Submitters == 1 {
		result.FIFOChecked = true
		result.FIFOViolations = t.fifoViolations()
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	status := "PASS"
	if !r.Verified() {
		status = "FAIL"
	}
	fifo := "not checked"
	if r.FIFOChecked {
		fifo = fmt.Sprintf("%d violations", r.FIFOViolations)
	}

	return fmt.Sprintf(`
================================================================================
                         SCENARIO REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Workers:        %d
  Interrupted:    %v

JOB METRICS
-----------
  Requested:        %d
  Submitted:        %d
  Rejected:         %d
  Completed:        %d
  Avg Run Time:     %v
  P99 Run Time:     %v
  Throughput:       %.2f jobs/s

VERIFICATION
------------
  Missing:          %d
  Duplicated:       %d
  FIFO Order:       %s
  Result:           %s

================================================================================`,
		r.ScenarioName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.Workers,
		r.Interrupted,
		r.RequestedJobs,
		r.SubmittedJobs,
		r.RejectedJobs,
		r.CompletedJobs,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.Throughput,
		r.MissingJobs,
		r.DuplicatedJobs,
		fifo,
		status,
	)
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	defer lockguard.Read(&e.mu).Release()
	return e.running
}

// Metrics は現在のメトリクスを返す
func (e *Engine) Metrics() *metrics.Snapshot {
	defer lockguard.Read(&e.mu).Release()
	if e.metrics == nil {
		return nil
	}
	snapshot := e.metrics.Snapshot()
	return &snapshot
}

// QueueSize はプールの待ちジョブ数を返す
func (e *Engine) QueueSize() int {
	defer lockguard.Read(&e.mu).Release()
	if e.pool == nil {
		return 0
	}
	return e.pool.QueueSize()
}

// tracker はジョブごとの実行回数と開始順を記録する
type tracker struct {
	submitted []atomic.Bool
	runs      []atomic.Int32
	startSeq  []atomic.Int64
	seq       atomic.Int64
}

func newTracker(n int) *tracker {
	return &tracker{
		submitted: make([]atomic.Bool, n),
		runs:      make([]atomic.Int32, n),
		startSeq:  make([]atomic.Int64, n),
	}
}

func (t *tracker) size() int {
	return len(t.runs)
}

func (t *tracker) start(i int) {
	t.startSeq[i].Store(t.seq.Add(1))
	t.runs[i].Add(1)
}

// verify は投入済みで未実行のジョブ数と複数回実行されたジョブ数を返す
func (t *tracker) verify() (missing, duplicated int) {
	for i := range t.runs {
		runs := t.runs[i].Load()
		switch {
		case runs == 0 && t.submitted[i].Load():
			missing++
		case runs > 1:
			duplicated++
		}
	}
	return missing, duplicated
}

func (t *tracker) fifoViolations() int {
	violations := 0
	var prev int64
	for i := range t.startSeq {
		seq := t.startSeq[i].Load()
		if seq == 0 {
			continue
		}
		if seq < prev {
			violations++
		}
		prev = seq
	}
	return violations
}
