package pool

import (
	"time"

	"glspool/internal/job"
)

// Observer はプールのライフサイクルを監視する。
// OnSubmit と OnFinishing はプールのロック保持中に呼ばれるため、ブロックしたり
// プールを呼び返したりしてはならない。その他のフックはロック外で呼ばれる。
type Observer interface {
	OnSubmit(j job.Job)
	OnReject(j job.Job, err error)
	OnStart(workerID int, j job.Job)
	OnFinish(workerID int, j job.Job, elapsed time.Duration)
	OnWorkerExit(workerID int)
	OnFinishing()
	OnFinished()
}

// NopObserver は何もしない Observer
type NopObserver struct{}

func (NopObserver) OnSubmit(job.Job) {}
func (NopObserver) OnReject(job.Job, error) {}
func (NopObserver) OnStart(int, job.Job) {}
func (NopObserver) OnFinish(int, job.Job, time.Duration) {}
func (NopObserver) OnWorkerExit(int) {}
func (NopObserver) OnFinishing() {}
func (NopObserver) OnFinished() {}

type multiObserver []Observer

// Observers は複数の Observer に順に通知する Observer を返す
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return NopObserver{}
	case 1:
		return m[0]
	default:
		return m
	}
}

func (m multiObserver) OnSubmit(j job.Job) {
	for _, o := range m {
		o.OnSubmit(j)
	}
}

func (m multiObserver) OnReject(j job.Job, err error) {
	for _, o := range m {
		o.OnReject(j, err)
	}
}

func (m multiObserver) OnStart(workerID int, j job.Job) {
	for _, o := range m {
		o.OnStart(workerID, j)
	}
}

func (m multiObserver) OnFinish(workerID int, j job.Job, elapsed time.Duration) {
	for _, o := range m {
		o.OnFinish(workerID, j, elapsed)
	}
}

func (m multiObserver) OnWorkerExit(workerID int) {
	for _, o := range m {
		o.OnWorkerExit(workerID)
	}
}

func (m multiObserver) OnFinishing() {
	for _, o := range m {
		o.OnFinishing()
	}
}

func (m multiObserver) OnFinished() {
	for _, o := range m {
		o.OnFinished()
	}
}
