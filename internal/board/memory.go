package board

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/biileprince/Employme-sub001/internal/ids"
)

// InMemory implements Service with in-process concurrency safety. It backs
// the HTTP tests and the dev mode of cmd/api; production uses store/pg.
type InMemory struct {
	mu         sync.RWMutex
	jobs       map[string]*Job
	apps       map[string]*Application
	interviews map[string]*Interview

	now func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty board.
func NewInMemory() *InMemory {
	return &InMemory{
		jobs:       make(map[string]*Job),
		apps:       make(map[string]*Application),
		interviews: make(map[string]*Interview),
		now:        time.Now,
	}
}

func (s *InMemory) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, j := range s.jobs {
		if j.IsActive && j.Deadline != nil && j.Deadline.Before(now) {
			j.IsActive = false
			j.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CreateJob(ctx context.Context, employerID string, in JobInput) (Job, error) {
	if strings.TrimSpace(employerID) == "" {
		return Job{}, ErrNotFound
	}
	if err := in.Validate(); err != nil {
		return Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	j := &Job{
		ID:          ids.New(),
		EmployerID:  employerID,
		Title:       strings.TrimSpace(in.Title),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		JobType:     strings.TrimSpace(in.JobType),
		SalaryMin:   in.SalaryMin,
		SalaryMax:   in.SalaryMax,
		Description: in.Description,
		IsActive:    true,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.jobs[j.ID] = j
	return *j, nil
}

func (s *InMemory) UpdateJob(ctx context.Context, jobID, employerID string, upd JobUpdate) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok || j.EmployerID != employerID {
		return Job{}, ErrNotFound
	}

	// Apply the update to a copy and swap it in on success, so a rejected
	// field never leaves earlier fields half-committed.
	next := *j
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return Job{}, ErrValidation
		}
		next.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Category != nil {
		if strings.TrimSpace(*upd.Category) == "" {
			return Job{}, ErrValidation
		}
		next.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.Location != nil {
		next.Location = strings.TrimSpace(*upd.Location)
	}
	if upd.JobType != nil {
		next.JobType = strings.TrimSpace(*upd.JobType)
	}
	if upd.SalaryMin != nil {
		next.SalaryMin = *upd.SalaryMin
	}
	if upd.SalaryMax != nil {
		next.SalaryMax = *upd.SalaryMax
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.ClearDeadline {
		next.Deadline = nil
	} else if upd.Deadline != nil {
		next.Deadline = upd.Deadline
	}
	// Reactivating a deadline-expired job is a legitimate owner action
	// (extend a closed posting); the flag and the deadline are independent.
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}
	next.UpdatedAt = s.now().UTC()
	*j = next
	return *j, nil
}

func (s *InMemory) DeleteJob(ctx context.Context, jobID, employerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok || j.EmployerID != employerID {
		return ErrNotFound
	}

	// Cascade: applications and their interviews go with the job.
	for appID, app := range s.apps {
		if app.JobID != jobID {
			continue
		}
		for ivID, iv := range s.interviews {
			if iv.ApplicationID == appID {
				delete(s.interviews, ivID)
			}
		}
		delete(s.apps, appID)
	}
	delete(s.jobs, jobID)
	return nil
}

func (s *InMemory) GetJob(ctx context.Context, jobID string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

func (s *InMemory) ListJobs(ctx context.Context, f JobFilter) ([]Job, error) {
	now := s.now().UTC()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Job
	for _, j := range s.jobs {
		if !j.EffectiveActive(now) {
			continue
		}
		if !matchesFilter(*j, f) {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID > out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (s *InMemory) ListEmployerJobs(ctx context.Context, employerID string) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Job
	for _, j := range s.jobs {
		if j.EmployerID == employerID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (s *InMemory) Apply(ctx context.Context, jobID, seekerID string, in ApplicationInput) (Application, error) {
	if strings.TrimSpace(seekerID) == "" {
		return Application{}, ErrNotFound
	}

	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return Application{}, ErrNotFound
	}
	if !j.EffectiveActive(now) {
		return Application{}, ErrJobClosed
	}
	for _, app := range s.apps {
		if app.JobID == jobID && app.SeekerID == seekerID {
			return Application{}, ErrDuplicateApplication
		}
	}

	app := &Application{
		ID:          ids.New(),
		JobID:       jobID,
		SeekerID:    seekerID,
		Status:      StatusPending,
		CoverLetter: in.CoverLetter,
		ResumeURL:   in.ResumeURL,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	s.apps[app.ID] = app
	return *app, nil
}

func (s *InMemory) UpdateApplicationStatus(ctx context.Context, appID, employerID string, status ApplicationStatus) (Application, error) {
	if _, err := ParseApplicationStatus(string(status)); err != nil {
		return Application{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return Application{}, ErrNotFound
	}
	j, ok := s.jobs[app.JobID]
	if !ok || j.EmployerID != employerID {
		return Application{}, ErrNotFound
	}
	if !CanTransition(app.Status, status) {
		return Application{}, ErrInvalidStatus
	}
	app.Status = status
	app.UpdatedAt = s.now().UTC()
	return *app, nil
}

func (s *InMemory) ListSeekerApplications(ctx context.Context, seekerID string) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Application
	for _, app := range s.apps {
		if app.SeekerID == seekerID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

func (s *InMemory) ListJobApplications(ctx context.Context, jobID, employerID string) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[jobID]
	if !ok || j.EmployerID != employerID {
		return nil, ErrNotFound
	}
	var out []Application
	for _, app := range s.apps {
		if app.JobID == jobID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

func (s *InMemory) ListEmployerApplications(ctx context.Context, employerID string, limit, offset int) ([]Application, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Application
	for _, app := range s.apps {
		j, ok := s.jobs[app.JobID]
		if ok && j.EmployerID == employerID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	total := len(out)
	return paginate(out, limit, offset), total, nil
}

func (s *InMemory) ScheduleInterview(ctx context.Context, appID, employerID string, in InterviewInput) (Interview, error) {
	if err := in.Validate(); err != nil {
		return Interview{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return Interview{}, ErrNotFound
	}
	j, ok := s.jobs[app.JobID]
	if !ok || j.EmployerID != employerID {
		return Interview{}, ErrNotFound
	}

	now := s.now().UTC()
	iv := &Interview{
		ID:            ids.New(),
		ApplicationID: appID,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		IsVirtual:     in.IsVirtual,
		MeetingLink:   in.MeetingLink,
		Location:      in.Location,
		Description:   in.Description,
		Status:        InterviewScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.interviews[iv.ID] = iv
	return *iv, nil
}

func (s *InMemory) UpdateInterview(ctx context.Context, interviewID, employerID string, upd InterviewUpdate) (Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iv, err := s.ownedInterviewLocked(interviewID, employerID)
	if err != nil {
		return Interview{}, err
	}

	// Same copy-and-swap discipline as UpdateJob: a bad status or date must
	// not leave the other supplied fields committed.
	next := *iv
	if upd.ScheduledDate != nil {
		if upd.ScheduledDate.IsZero() {
			return Interview{}, ErrValidation
		}
		next.ScheduledDate = *upd.ScheduledDate
	}
	if upd.ScheduledTime != nil {
		next.ScheduledTime = *upd.ScheduledTime
	}
	if upd.IsVirtual != nil {
		next.IsVirtual = *upd.IsVirtual
	}
	if upd.MeetingLink != nil {
		next.MeetingLink = *upd.MeetingLink
	}
	if upd.Location != nil {
		next.Location = *upd.Location
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.Status != nil {
		st, err := ParseInterviewStatus(string(*upd.Status))
		if err != nil {
			return Interview{}, err
		}
		next.Status = st
	}
	next.UpdatedAt = s.now().UTC()
	*iv = next
	return *iv, nil
}

func (s *InMemory) DeleteInterview(ctx context.Context, interviewID, employerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedInterviewLocked(interviewID, employerID); err != nil {
		return err
	}
	delete(s.interviews, interviewID)
	return nil
}

func (s *InMemory) ListApplicationInterviews(ctx context.Context, appID, actorID string, employerView bool) ([]Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, ErrNotFound
	}
	if employerView {
		j, ok := s.jobs[app.JobID]
		if !ok || j.EmployerID != actorID {
			return nil, ErrNotFound
		}
	} else if app.SeekerID != actorID {
		return nil, ErrNotFound
	}

	var out []Interview
	for _, iv := range s.interviews {
		if iv.ApplicationID == appID {
			out = append(out, *iv)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].ScheduledDate.Equal(out[k].ScheduledDate) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ScheduledDate.Before(out[k].ScheduledDate)
	})
	return out, nil
}

func (s *InMemory) ListUpcomingInterviews(ctx context.Context, seekerID string) ([]Interview, error) {
	now := s.now().UTC()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Interview
	for _, iv := range s.interviews {
		app, ok := s.apps[iv.ApplicationID]
		if !ok || app.SeekerID != seekerID {
			continue
		}
		if !iv.ScheduledDate.After(now) {
			continue
		}
		if iv.Status != InterviewScheduled && iv.Status != InterviewConfirmed {
			continue
		}
		out = append(out, *iv)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ScheduledDate.Before(out[k].ScheduledDate) })
	return out, nil
}

// ownedInterviewLocked resolves the interview -> application -> job -> employer
// chain. Callers must hold s.mu.
func (s *InMemory) ownedInterviewLocked(interviewID, employerID string) (*Interview, error) {
	iv, ok := s.interviews[interviewID]
	if !ok {
		return nil, ErrNotFound
	}
	app, ok := s.apps[iv.ApplicationID]
	if !ok {
		return nil, ErrNotFound
	}
	j, ok := s.jobs[app.JobID]
	if !ok || j.EmployerID != employerID {
		return nil, ErrNotFound
	}
	return iv, nil
}

func matchesFilter(j Job, f JobFilter) bool {
	if f.Category != "" && !strings.EqualFold(j.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(j.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.JobType != "" && !strings.EqualFold(j.JobType, f.JobType) {
		return false
	}
	if f.MinSalary > 0 && j.SalaryMax < f.MinSalary {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(j.Title), needle) &&
			!strings.Contains(strings.ToLower(j.Description), needle) {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
