package jobs

import (
	"context"
	"log"
	"time"
)

// Job is an explicit, retryable unit of scheduled work. Retry state lives
// in the descriptor, not in a decorator around the failed call stack.
type Job struct {
	Name           string
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
	Run            func(ctx context.Context) error
}

// Runner executes jobs with bounded exponential backoff. A job exhausting
// its retries raises an operator alert in the log; it never crashes the
// scheduler process.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Execute(job Job) {
	log.Printf("Running job: %s...", job.Name)

	backoff := job.InitialBackoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	var lastErr error
	for attempt := 0; attempt <= job.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("Job %s: retry %d/%d after %s", job.Name, attempt, job.MaxRetries, backoff)
			time.Sleep(backoff)
			backoff *= 2
		}

		lastErr = r.runOnce(job, timeout)
		if lastErr == nil {
			return
		}
		log.Printf("Job %s attempt %d failed: %v", job.Name, attempt+1, lastErr)
	}

	log.Printf("🔥 ALERT: job %s exhausted %d retries: %v", job.Name, job.MaxRetries, lastErr)
}

func (r *Runner) runOnce(job Job, timeout time.Duration) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("🔥 Job %s panicked: %v", job.Name, rec)
			err = ErrJobPanicked
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return job.Run(ctx)
}
