package board

import "context"

// Service defines the lifecycle operations of the job board core.
//
// Concurrency contract: the implementation serializes writes to one row (the
// relational store's row locking, or a mutex in memory) and the last write
// committed wins. There is no optimistic version token on status updates; two
// racing UpdateApplicationStatus calls both succeed and the later commit is
// the persisted state.
type Service interface {
	// SweepExpired flips is_active off for every job whose deadline is
	// strictly in the past. One bulk conditional update, idempotent; returns
	// the number of jobs expired by this run.
	SweepExpired(ctx context.Context) (int64, error)

	CreateJob(ctx context.Context, employerID string, in JobInput) (Job, error)
	UpdateJob(ctx context.Context, jobID, employerID string, upd JobUpdate) (Job, error)
	DeleteJob(ctx context.Context, jobID, employerID string) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	ListJobs(ctx context.Context, f JobFilter) ([]Job, error)
	ListEmployerJobs(ctx context.Context, employerID string) ([]Job, error)

	Apply(ctx context.Context, jobID, seekerID string, in ApplicationInput) (Application, error)
	UpdateApplicationStatus(ctx context.Context, appID, employerID string, status ApplicationStatus) (Application, error)
	ListSeekerApplications(ctx context.Context, seekerID string) ([]Application, error)
	ListJobApplications(ctx context.Context, jobID, employerID string) ([]Application, error)
	ListEmployerApplications(ctx context.Context, employerID string, limit, offset int) ([]Application, int, error)

	ScheduleInterview(ctx context.Context, appID, employerID string, in InterviewInput) (Interview, error)
	UpdateInterview(ctx context.Context, interviewID, employerID string, upd InterviewUpdate) (Interview, error)
	DeleteInterview(ctx context.Context, interviewID, employerID string) error
	// ListApplicationInterviews is visible to the owning employer and to the
	// seeker who applied; everyone else gets ErrNotFound.
	ListApplicationInterviews(ctx context.Context, appID, actorID string, employerView bool) ([]Interview, error)
	// ListUpcomingInterviews returns interviews with a strictly future date
	// and status SCHEDULED or CONFIRMED, ascending by date. Recomputed on
	// every call; never materialized.
	ListUpcomingInterviews(ctx context.Context, seekerID string) ([]Interview, error)
}

// CanTransition is the single choke point for application status moves.
// Transitions are currently unrestricted among the known statuses (the UI
// exposes a free-choice selector); a directed-graph policy only needs to
// change this function, not its callers.
func CanTransition(from, to ApplicationStatus) bool {
	_, err := ParseApplicationStatus(string(to))
	return err == nil
}
