package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"glspool/internal/job"
	"glspool/internal/pool"
)

var _ pool.Observer = (*Collector)(nil)

// DefaultNamespace はメトリクス名の既定プレフィックス
const DefaultNamespace = "glspool"

// Collector はプールのイベントを Prometheus のメトリクスに反映する
type Collector struct {
	registerer prometheus.Registerer
	namespace  string

	JobsSubmitted prometheus.Counter
	JobsRejected  *prometheus.CounterVec
	JobsCompleted prometheus.Counter
	JobsInFlight  prometheus.Gauge
	JobDuration   prometheus.Histogram
	WorkersLive   prometheus.Gauge
}

// NewCollector は registerer にメトリクスを登録した Collector を作成する
func NewCollector(registerer prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(registerer)

	return &Collector{
		registerer: registerer,
		namespace:  namespace,
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs accepted by the pool",
		}),
		JobsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_rejected_total",
			Help:      "Total number of jobs rejected by the pool",
		}, []string{"reason"}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that ran to completion",
		}),
		JobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Number of jobs currently running",
		}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job execution time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}),
		WorkersLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_live",
			Help:      "Number of worker goroutines that have not exited",
		}),
	}
}

// RegisterQueueDepth はキュー長を返す関数をゲージとして登録する
func (c *Collector) RegisterQueueDepth(depth func() int) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "queue_depth",
		Help:      "Number of jobs waiting in the queue",
	}, func() float64 {
		return float64(depth())
	})
	if err := c.registerer.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			c.registerer.Unregister(are.ExistingCollector)
			return c.registerer.Register(g)
		}
		return err
	}
	return nil
}

// SetWorkers は稼働中ワーカー数を設定する
func (c *Collector) SetWorkers(n int) {
	c.WorkersLive.Set(float64(n))
}

func (c *Collector) OnSubmit(job.Job) {
	c.JobsSubmitted.Inc()
}

func (c *Collector) OnReject(_ job.Job, err error) {
	c.JobsRejected.WithLabelValues(rejectReason(err)).Inc()
}

func (c *Collector) OnStart(int, job.Job) {
	c.JobsInFlight.Inc()
}

func (c *Collector) OnFinish(_ int, _ job.Job, elapsed time.Duration) {
	c.JobsInFlight.Dec()
	c.JobsCompleted.Inc()
	c.JobDuration.Observe(elapsed.Seconds())
}

func (c *Collector) OnWorkerExit(int) {
	c.WorkersLive.Dec()
}

func (c *Collector) OnFinishing() {}

func (c *Collector) OnFinished() {}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, pool.ErrFinishing):
		return "finishing"
	case errors.Is(err, job.ErrNilFunc), errors.Is(err, job.ErrNilContext):
		return "invalid"
	default:
		return "other"
	}
}
