// Package events provides an event system for pool lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	// EventJobSubmitted is emitted when a job is accepted into the queue
	EventJobSubmitted EventType = "job_submitted"
	// EventJobRejected is emitted when a submission is refused
	EventJobRejected EventType = "job_rejected"
	// EventJobStarted is emitted when a worker dequeues a job and starts it
	EventJobStarted EventType = "job_started"
	// EventJobFinished is emitted when a job returns
	EventJobFinished EventType = "job_finished"
	// EventWorkerExited is emitted when a worker leaves its loop
	EventWorkerExited EventType = "worker_exited"
	// EventPoolFinishing is emitted when shutdown is requested
	EventPoolFinishing EventType = "pool_finishing"
	// EventPoolFinished is emitted after every worker has exited
	EventPoolFinished EventType = "pool_finished"
)

// Event represents a pool event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	JobID     string    `json:"job_id,omitempty"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

func jobID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// NewJobSubmittedEvent creates a job submitted event
func NewJobSubmittedEvent(id uuid.UUID) Event {
	return Event{
		Type:      EventJobSubmitted,
		Timestamp: time.Now(),
		WorkerID:  -1,
		JobID:     jobID(id),
	}
}

// NewJobRejectedEvent creates a job rejected event
func NewJobRejectedEvent(id uuid.UUID, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventJobRejected,
		Timestamp: time.Now(),
		WorkerID:  -1,
		JobID:     jobID(id),
		Data: EventData{
			Error: errMsg,
		},
	}
}

// NewJobStartedEvent creates a job started event
func NewJobStartedEvent(workerID int, id uuid.UUID) Event {
	return Event{
		Type:      EventJobStarted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		JobID:     jobID(id),
	}
}

// NewJobFinishedEvent creates a job finished event
func NewJobFinishedEvent(workerID int, id uuid.UUID, elapsed time.Duration) Event {
	return Event{
		Type:      EventJobFinished,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		JobID:     jobID(id),
		Data: EventData{
			Duration: elapsed.String(),
		},
	}
}

// NewWorkerExitedEvent creates a worker exited event
func NewWorkerExitedEvent(workerID int) Event {
	return Event{
		Type:      EventWorkerExited,
		Timestamp: time.Now(),
		WorkerID:  workerID,
	}
}

// NewPoolFinishingEvent creates a pool finishing event
func NewPoolFinishingEvent() Event {
	return Event{
		Type:      EventPoolFinishing,
		Timestamp: time.Now(),
		WorkerID:  -1,
	}
}

// NewPoolFinishedEvent creates a pool finished event
func NewPoolFinishedEvent() Event {
	return Event{
		Type:      EventPoolFinished,
		Timestamp: time.Now(),
		WorkerID:  -1,
	}
}
