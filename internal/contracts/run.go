package contracts

import (
	"fmt"
	"strings"
	"time"
)

// JobKind is the closed set of job types a descriptor may carry
type JobKind string

const (
	KindScoring    JobKind = "scoring"
	KindAllocation JobKind = "allocation"
	KindFull       JobKind = "full"
)

// ParseJobKind validates a payload type. "pac" is the name older producers
// use for allocation jobs.
func ParseJobKind(s string) (JobKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scoring":
		return KindScoring, nil
	case "allocation", "pac":
		return KindAllocation, nil
	case "full":
		return KindFull, nil
	default:
		return "", fmt.Errorf("unknown job type %q", s)
	}
}

// RunsScoring reports whether the scoring stage is part of the job
func (k JobKind) RunsScoring() bool {
	return k == KindScoring || k == KindFull
}

// RunsAllocation reports whether the allocation stage is part of the job
func (k JobKind) RunsAllocation() bool {
	return k == KindAllocation || k == KindFull
}

// RunStatus is the lifecycle state of a JobRun
type RunStatus string

const (
	StatusNotStarted RunStatus = "NOT_STARTED"
	StatusRunning    RunStatus = "RUNNING"
	StatusCompleted  RunStatus = "COMPLETED"
	StatusFailed     RunStatus = "FAILED"
)

// IsTerminal reports whether no further transition is possible
func (s RunStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo encodes NOT_STARTED → RUNNING → {COMPLETED | FAILED}
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Predecessor returns the only status from which next can be reached
func Predecessor(next RunStatus) (RunStatus, bool) {
	switch next {
	case StatusRunning:
		return StatusNotStarted, true
	case StatusCompleted, StatusFailed:
		return StatusRunning, true
	default:
		return "", false
	}
}

// JobRun is the persistent record of one queued job
type JobRun struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	UserID      string     `json:"user_id"`
	Status      RunStatus  `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Descriptor is the validated queue payload
type Descriptor struct {
	RunID  string  `json:"runId"`
	UserID string  `json:"userId"`
	Kind   JobKind `json:"type"`
}
