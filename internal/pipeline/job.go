package pipeline

import "context"

// Job adapts the service to the scheduler's job interface for periodic
// runs.
type Job struct {
	svc *Service
}

// NewJob wraps the pipeline service as a scheduled job.
func NewJob(svc *Service) *Job {
	return &Job{svc: svc}
}

// Name returns the job name
func (j *Job) Name() string {
	return "affinity_pipeline"
}

// Run executes one pipeline run
func (j *Job) Run() error {
	_, err := j.svc.Run(context.Background())
	return err
}
