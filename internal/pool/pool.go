package pool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"glspool/internal/fatal"
	"glspool/internal/job"
	"glspool/internal/lockguard"
	"glspool/internal/logger"
)

var (
	// ErrInvalidSize はワーカー数が不正な場合のエラー
	ErrInvalidSize = errors.New("pool: worker count must be at least 1")
	// ErrFinishing は終了要求後にジョブを投入した場合のエラー
	ErrFinishing = errors.New("pool: finish already requested")
)

// Config はプールの設定
type Config struct {
	NumWorkers int            // ワーカー数（0でCPU数）
	Observer   Observer       // ライフサイクル通知先（nil可）
	Fatal      fatal.Reporter // 致命的エラーの報告先（nilで fatal.Default）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0, // CPU数
	}
}

// Pool は固定数のワーカーを持つプール。
// ワーカーは内部の core のみを参照するので、Pool が到達不能になれば
// クリーンアップで終了処理が走る。
type Pool struct {
	*core
}

type core struct {
	numWorkers int
	observer   Observer
	report     fatal.Reporter

	mu               sync.Mutex
	cond             *sync.Cond
	jobs             queue
	finishRequested  bool
	workAvailable    bool // jobs.len() > 0 || finishRequested
	shutdownComplete bool

	wg   sync.WaitGroup
	done chan struct{}
}

// New は numWorkers 個のワーカーを起動したプールを返す
func New(numWorkers int) (*Pool, error) {
	if numWorkers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, numWorkers)
	}
	config := DefaultConfig()
	config.NumWorkers = numWorkers
	return NewWithConfig(config)
}

// NewWithConfig は設定を指定してプールを作成する
func NewWithConfig(config Config) (*Pool, error) {
	numWorkers := config.NumWorkers
	if numWorkers < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, numWorkers)
	}
	if numWorkers == 0 {
		numWorkers = runtime.NumCPU()
	}
	report := config.Fatal
	if report == nil {
		report = fatal.Default
	}

	c := &core{
		numWorkers: numWorkers,
		observer:   Observers(config.Observer),
		report:     report,
		done:       make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	for i := range numWorkers {
		c.wg.Add(1)
		go c.worker(i)
	}

	p := &Pool{core: c}
	runtime.AddCleanup(p, func(c *core) {
		// クリーンアップ用ゴルーチンをブロックしない
		go c.finish()
	}, c)

	logger.Info("pool", "started %d workers", numWorkers)
	return p, nil
}

// Submit はエントリポイントとコンテキスト値からジョブを作成して投入する
func (p *Pool) Submit(fn job.Func, arg any) error {
	j, err := job.New(fn, arg)
	if err != nil {
		p.observer.OnReject(j, err)
		return fmt.Errorf("submit: %w", err)
	}
	return p.submit(j)
}

// SubmitJob は作成済みのジョブを投入する
func (p *Pool) SubmitJob(j job.Job) error {
	if err := j.Validate(); err != nil {
		p.observer.OnReject(j, err)
		return fmt.Errorf("submit: %w", err)
	}
	return p.submit(j)
}

// Go はクロージャをジョブとして投入する
func (p *Pool) Go(f func()) error {
	j, err := job.FromFunc(f)
	if err != nil {
		p.observer.OnReject(j, err)
		return fmt.Errorf("submit: %w", err)
	}
	return p.submit(j)
}

// Finish は投入済みの全ジョブの完了と全ワーカーの終了を待つ
func (p *Pool) Finish() {
	p.finish()
}

// Close はプールを破棄する。Finish が未実行なら実行する
func (p *Pool) Close() error {
	p.finish()
	return nil
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize は実行待ちのジョブ数を返す
func (p *Pool) QueueSize() int {
	g := lockguard.Lock(&p.mu)
	defer g.Release()
	return p.jobs.len()
}

// Finishing は終了が要求済みかを返す
func (p *Pool) Finishing() bool {
	g := lockguard.Lock(&p.mu)
	defer g.Release()
	return p.finishRequested
}

// Finished は全ワーカーの終了が完了したかを返す
func (p *Pool) Finished() bool {
	g := lockguard.Lock(&p.mu)
	defer g.Release()
	return p.shutdownComplete
}

func (c *core) submit(j job.Job) error {
	g := lockguard.Lock(&c.mu)
	if c.finishRequested {
		g.Release()
		c.observer.OnReject(j, ErrFinishing)
		return ErrFinishing
	}
	c.jobs.push(j)
	c.workAvailable = true
	c.observer.OnSubmit(j)
	// 1件追加したので起こすのは1ワーカーで足りる
	c.cond.Signal()
	g.Release()
	return nil
}

func (c *core) finish() {
	g := lockguard.Lock(&c.mu)
	if c.finishRequested {
		g.Release()
		<-c.done
		return
	}
	c.finishRequested = true
	c.workAvailable = true
	// ワーカーが終了を観測する前に通知する
	c.observer.OnFinishing()
	// 再通知の保証がないので全ワーカーを起こす
	c.cond.Broadcast()
	g.Release()

	logger.Debug("pool", "finish requested, waiting for %d workers", c.numWorkers)

	c.wg.Wait()

	lockguard.With(&c.mu, func() {
		c.shutdownComplete = true
	})
	close(c.done)

	c.observer.OnFinished()
	logger.Info("pool", "all %d workers stopped", c.numWorkers)
}

// worker は個々のワーカーゴルーチン
func (c *core) worker(id int) {
	defer c.wg.Done()

	c.loop(id)

	c.observer.OnWorkerExit(id)
	if logger.Default.Enabled(logger.LevelDebug) {
		logger.Debug(workerName(id), "exited")
	}
}

func (c *core) loop(id int) {
	g := lockguard.Lock(&c.mu)
	defer g.Release()

	for {
		for !c.workAvailable {
			c.cond.Wait()
		}

		j, ok := c.jobs.pop()
		if !ok {
			if !c.finishRequested {
				err := &fatal.Error{
					Op:  workerName(id) + " woke with no job and no shutdown",
					Err: fatal.ErrCorruptState,
				}
				g.Unlocked(func() { c.report(err) })
			}
			return
		}
		c.workAvailable = c.jobs.len() > 0 || c.finishRequested

		g.Unlocked(func() { c.run(id, j) })
	}
}

// run はロック外でジョブを実行する。panic は回復しない
func (c *core) run(id int, j job.Job) {
	c.observer.OnStart(id, j)
	start := time.Now()
	_ = j.Run()
	c.observer.OnFinish(id, j, time.Since(start))
}

func workerName(id int) string {
	return fmt.Sprintf("worker-%d", id)
}
