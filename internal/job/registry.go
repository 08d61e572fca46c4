// Package job tracks synthesis jobs from submission to the written run.
package job

import (
	"sync"

	"github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/model"
)

// Registry is an in-memory job store. Jobs are kept for the lifetime of the
// process; clients poll them by id.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*model.Job)}
}

// Add stores a new job.
func (r *Registry) Add(j *model.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	r.order = append(r.order, j.ID)
}

// Get returns a copy of the job with the given id.
func (r *Registry) Get(id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, errors.JobNotFound(id)
	}
	return j.Clone(), nil
}

// List returns copies of all jobs in submission order.
func (r *Registry) List() []*model.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id].Clone())
	}
	return out
}

// Update applies fn to the stored job under the registry lock.
func (r *Registry) Update(id string, fn func(*model.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return errors.JobNotFound(id)
	}
	fn(j)
	return nil
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
