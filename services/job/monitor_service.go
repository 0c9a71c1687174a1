package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"datamanageapi/pkg/logger"
)

// Job statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// retention is how long finished jobs stay queryable before the janitor
// removes them.
const retention = 24 * time.Hour

// ImportJob tracks one background dataset import.
type ImportJob struct {
	JobID          string     `json:"job_id"`
	DatamanageUUID string     `json:"datamanage_uuid"`
	UserID         uint       `json:"user_id"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Error          string     `json:"error,omitempty"`
	DatamanageID   uint       `json:"datamanage_id,omitempty"`
}

// PaginatedJobs is a page of import jobs, newest first.
type PaginatedJobs struct {
	Jobs       []ImportJob `json:"jobs"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// ImportJobMonitor tracks background import jobs in memory.
type ImportJobMonitor struct {
	jobs    map[string]*ImportJob
	mu      sync.RWMutex
	stopCh  chan struct{}
	stopped bool
}

var (
	monitorInstance *ImportJobMonitor
	monitorOnce     sync.Once
)

// GetImportJobMonitor returns the singleton monitor instance.
func GetImportJobMonitor() *ImportJobMonitor {
	monitorOnce.Do(func() {
		monitorInstance = &ImportJobMonitor{
			jobs:   make(map[string]*ImportJob),
			stopCh: make(chan struct{}),
		}
		go monitorInstance.janitor()
	})
	return monitorInstance
}

// StartJob registers a new running import job and returns its id.
func (m *ImportJobMonitor) StartJob(datamanageUUID string, userID uint) string {
	jobID := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobID] = &ImportJob{
		JobID:          jobID,
		DatamanageUUID: datamanageUUID,
		UserID:         userID,
		Status:         StatusRunning,
		Message:        "Import started",
		StartTime:      time.Now(),
	}
	logger.Infof("Started import job %s for datamanage %s", jobID, datamanageUUID)
	return jobID
}

// CompleteJob marks a job as succeeded.
func (m *ImportJobMonitor) CompleteJob(jobID string, datamanageID uint) {
	m.finish(jobID, StatusSucceeded, "Import completed", "", datamanageID)
}

// FailJob marks a job as failed with the given error.
func (m *ImportJobMonitor) FailJob(jobID string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.finish(jobID, StatusFailed, "Import failed", msg, 0)
}

func (m *ImportJobMonitor) finish(jobID, status, message, errMsg string, datamanageID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		logger.Warnf("Cannot finish unknown import job %s", jobID)
		return
	}
	now := time.Now()
	job.Status = status
	job.Message = message
	job.Error = errMsg
	job.EndTime = &now
	job.DatamanageID = datamanageID
	logger.Infof("Import job %s finished with status %s", jobID, status)
}

// GetJob returns a copy of the job, if known.
func (m *ImportJobMonitor) GetJob(jobID string) (*ImportJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, false
	}
	jobCopy := *job
	return &jobCopy, true
}

// GetAllJobsPaginated returns one page of jobs ordered newest first.
func (m *ImportJobMonitor) GetAllJobsPaginated(page, pageSize int) PaginatedJobs {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	m.mu.RLock()
	all := make([]ImportJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		all = append(all, *job)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartTime.After(all[j].StartTime)
	})

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return PaginatedJobs{
		Jobs:       all[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (m *ImportJobMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopCh)
}

// janitor removes finished jobs older than the retention window.
func (m *ImportJobMonitor) janitor() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.prune(time.Now().Add(-retention))
		}
	}
}

func (m *ImportJobMonitor) prune(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, job := range m.jobs {
		if job.EndTime != nil && job.EndTime.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}

// String implements fmt.Stringer for log output.
func (j *ImportJob) String() string {
	return fmt.Sprintf("job %s (%s) status=%s", j.JobID, j.DatamanageUUID, j.Status)
}
