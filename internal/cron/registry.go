package cron

import "context"

// Job is one unit of background maintenance work: the cart expiry sweep,
// the outbox dispatcher, the outbox retention trim. Name doubles as the
// advisory-lock key and the metrics label, so it must be stable.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the fixed set of jobs a worker process runs, in the order
// they were handed to NewRegistry.
type Registry struct {
	jobs []Job
}

// NewRegistry collects the given jobs, dropping nils so callers can pass
// conditionally-built jobs without guarding each one.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make([]Job, 0, len(jobs))}
	for _, job := range jobs {
		if job != nil {
			r.jobs = append(r.jobs, job)
		}
	}
	return r
}

// Jobs returns a copy of the job list so schedulers cannot mutate the
// registry underneath each other.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
