package events

import (
	"time"

	"glspool/internal/job"
	"glspool/internal/pool"
)

var _ pool.Observer = (*Observer)(nil)

// Observer publishes pool callbacks to a Bus
type Observer struct {
	bus *Bus
}

// NewObserver creates an Observer that publishes to bus
func NewObserver(bus *Bus) *Observer {
	return &Observer{bus: bus}
}

func (o *Observer) OnSubmit(j job.Job) {
	o.bus.Publish(NewJobSubmittedEvent(j.ID))
}

func (o *Observer) OnReject(j job.Job, err error) {
	o.bus.Publish(NewJobRejectedEvent(j.ID, err))
}

func (o *Observer) OnStart(workerID int, j job.Job) {
	o.bus.Publish(NewJobStartedEvent(workerID, j.ID))
}

func (o *Observer) OnFinish(workerID int, j job.Job, elapsed time.Duration) {
	o.bus.Publish(NewJobFinishedEvent(workerID, j.ID, elapsed))
}

func (o *Observer) OnWorkerExit(workerID int) {
	o.bus.Publish(NewWorkerExitedEvent(workerID))
}

func (o *Observer) OnFinishing() {
	o.bus.Publish(NewPoolFinishingEvent())
}

func (o *Observer) OnFinished() {
	o.bus.Publish(NewPoolFinishedEvent())
}
