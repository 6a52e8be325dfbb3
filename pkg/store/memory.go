package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/structs"
)

// Memory is an in-process record store. It backs tests and local demos;
// the semantics (not-found errors, atomic quota consumption, value
// isolation between caller & store) match the postgres implementation.
type Memory struct {
	mu sync.Mutex

	jobs         map[string]*structs.Job
	jobsByKey    map[string]string
	tasks        map[string]*structs.Task
	tasksByKey   map[string]string
	workflows    map[string]*structs.Workflow
	applications map[string]*structs.Application
	licenses     map[string]*structs.License
	audits       []*structs.AuditLog
}

func NewMemory() *Memory {
	return &Memory{
		jobs:         map[string]*structs.Job{},
		jobsByKey:    map[string]string{},
		tasks:        map[string]*structs.Task{},
		tasksByKey:   map[string]string{},
		workflows:    map[string]*structs.Workflow{},
		applications: map[string]*structs.Application{},
		licenses:     map[string]*structs.License{},
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateJob(ctx context.Context, j *structs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = cloneJob(j)
	m.jobsByKey[j.JobKey] = j.ID
	return nil
}

func (m *Memory) UpdateJob(ctx context.Context, j *structs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return fmt.Errorf("%w job %s", errors.ErrNotFound, j.ID)
	}
	m.jobs[j.ID] = cloneJob(j)
	return nil
}

func (m *Memory) Job(ctx context.Context, id string) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w job %s", errors.ErrNotFound, id)
	}
	return cloneJob(j), nil
}

func (m *Memory) JobByKey(ctx context.Context, key string) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.jobsByKey[key]
	if !ok {
		return nil, fmt.Errorf("%w job key %s", errors.ErrNotFound, key)
	}
	return cloneJob(m.jobs[id]), nil
}

func (m *Memory) CreateTask(ctx context.Context, t *structs.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = cloneTask(t)
	m.tasksByKey[t.TaskKey] = t.ID
	return nil
}

func (m *Memory) UpdateTask(ctx context.Context, t *structs.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return fmt.Errorf("%w task %s", errors.ErrNotFound, t.ID)
	}
	m.tasks[t.ID] = cloneTask(t)
	return nil
}

func (m *Memory) Task(ctx context.Context, id string) (*structs.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w task %s", errors.ErrNotFound, id)
	}
	return cloneTask(t), nil
}

func (m *Memory) TaskByKey(ctx context.Context, key string) (*structs.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tasksByKey[key]
	if !ok {
		return nil, fmt.Errorf("%w task key %s", errors.ErrNotFound, key)
	}
	return cloneTask(m.tasks[id]), nil
}

// SetWorkflow seeds a workflow (fixture setup).
func (m *Memory) SetWorkflow(w *structs.Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	cp.TasksTodo = append([]structs.TaskTodo{}, w.TasksTodo...)
	m.workflows[w.ID] = &cp
}

func (m *Memory) Workflow(ctx context.Context, id string) (*structs.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w workflow %s", errors.ErrNotFound, id)
	}
	cp := *w
	cp.TasksTodo = append([]structs.TaskTodo{}, w.TasksTodo...)
	return &cp, nil
}

// SetApplication seeds an application (fixture setup).
func (m *Memory) SetApplication(a *structs.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.Config = append([]structs.ConfigEntry{}, a.Config...)
	m.applications[a.ID] = &cp
}

func (m *Memory) Application(ctx context.Context, id string) (*structs.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w application %s", errors.ErrNotFound, id)
	}
	cp := *a
	cp.Config = append([]structs.ConfigEntry{}, a.Config...)
	return &cp, nil
}

// SetLicense seeds a license (fixture setup).
func (m *Memory) SetLicense(l *structs.License) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.licenses[l.ID] = &cp
}

func (m *Memory) License(ctx context.Context, id string) (*structs.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.licenses[id]
	if !ok {
		return nil, fmt.Errorf("%w license %s", errors.ErrNotFound, id)
	}
	cp := *l
	return &cp, nil
}

func (m *Memory) ConsumeLicenseUnit(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.licenses[id]
	if !ok {
		return false, fmt.Errorf("%w license %s", errors.ErrNotFound, id)
	}
	if l.Used >= l.Limit {
		return false, nil
	}
	l.Used++
	return true, nil
}

func (m *Memory) CreateAuditLog(ctx context.Context, a *structs.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.audits = append(m.audits, &cp)
	return nil
}

// AuditLogs returns recorded entries for a job (test helper).
func (m *Memory) AuditLogs(jobID string) []*structs.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*structs.AuditLog{}
	for _, a := range m.audits {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func cloneJob(j *structs.Job) *structs.Job {
	cp := *j
	cp.TasksTodo = append([]structs.TaskTodo{}, j.TasksTodo...)
	cp.Input = append([]structs.KV{}, j.Input...)
	cp.Output = append([]structs.KV{}, j.Output...)
	cp.NotificationStatus = cloneStatusMap(j.NotificationStatus)
	cp.LoginCodeNotificationStatus = cloneStatusMap(j.LoginCodeNotificationStatus)
	return &cp
}

func cloneTask(t *structs.Task) *structs.Task {
	cp := *t
	cp.Input = append([]structs.KV{}, t.Input...)
	cp.Config = append([]structs.ConfigEntry{}, t.Config...)
	cp.Output = append([]structs.KV{}, t.Output...)
	return &cp
}

func cloneStatusMap(in map[structs.Channel]structs.DeliveryStatus) map[structs.Channel]structs.DeliveryStatus {
	if in == nil {
		return nil
	}
	out := make(map[structs.Channel]structs.DeliveryStatus, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
