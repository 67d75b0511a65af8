package scheduler

import "errors"

var (
	// ErrQueueNotRunning is returned when submitting to a stopped queue
	ErrQueueNotRunning = errors.New("scheduler: job queue is not running")

	// ErrJobQueueFull is returned when the named queue buffer is full
	ErrJobQueueFull = errors.New("scheduler: job queue is full")

	// ErrUnknownQueue is returned for a queue name that has no workers
	ErrUnknownQueue = errors.New("scheduler: unknown queue")

	// ErrInvalidJob is returned for a job without a name or run function
	ErrInvalidJob = errors.New("scheduler: job requires a name and a run function")

	// ErrInvalidSchedule is returned when a cron expression does not parse
	ErrInvalidSchedule = errors.New("scheduler: invalid cron schedule")
)
