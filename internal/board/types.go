package board

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the review state an employer assigns to an application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "PENDING"
	StatusReviewed    ApplicationStatus = "REVIEWED"
	StatusShortlisted ApplicationStatus = "SHORTLISTED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusHired       ApplicationStatus = "HIRED"
)

// ParseApplicationStatus normalizes a raw status value.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	switch ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusReviewed:
		return StatusReviewed, nil
	case StatusShortlisted:
		return StatusShortlisted, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusHired:
		return StatusHired, nil
	}
	return "", fmt.Errorf("%w: unknown application status %q", ErrInvalidStatus, raw)
}

// InterviewStatus tracks one scheduled meeting.
type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "SCHEDULED"
	InterviewConfirmed   InterviewStatus = "CONFIRMED"
	InterviewCompleted   InterviewStatus = "COMPLETED"
	InterviewCancelled   InterviewStatus = "CANCELLED"
	InterviewRescheduled InterviewStatus = "RESCHEDULED"
)

// ParseInterviewStatus normalizes a raw interview status value.
func ParseInterviewStatus(raw string) (InterviewStatus, error) {
	switch InterviewStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case InterviewScheduled:
		return InterviewScheduled, nil
	case InterviewConfirmed:
		return InterviewConfirmed, nil
	case InterviewCompleted:
		return InterviewCompleted, nil
	case InterviewCancelled:
		return InterviewCancelled, nil
	case InterviewRescheduled:
		return InterviewRescheduled, nil
	}
	return "", fmt.Errorf("%w: unknown interview status %q", ErrInvalidStatus, raw)
}

// Job is an employer-owned posting with an active/closed lifecycle.
//
// IsActive and Deadline are independent fields: the expiry sweep lazily flips
// IsActive off once the deadline passes, and an owner may flip it back on to
// extend a closed posting. Readers that bypass the sweep must use
// EffectiveActive so a stale active row is never surfaced.
type Job struct {
	ID          string     `json:"id"`
	EmployerID  string     `json:"employer_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	JobType     string     `json:"job_type,omitempty"`
	SalaryMin   int64      `json:"salary_min,omitempty"`
	SalaryMax   int64      `json:"salary_max,omitempty"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EffectiveActive reports whether the job accepts applications at instant now,
// regardless of whether the sweep has caught up with a passed deadline.
func (j Job) EffectiveActive(now time.Time) bool {
	if !j.IsActive {
		return false
	}
	if j.Deadline != nil && j.Deadline.Before(now) {
		return false
	}
	return true
}

// LifecycleStatus renders the two-state machine for owner-facing listings.
func (j Job) LifecycleStatus(now time.Time) string {
	if j.EffectiveActive(now) {
		return "ACTIVE"
	}
	return "CLOSED"
}

// Application is a job seeker's submission against one Job.
// At most one exists per (job, seeker) pair.
type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	SeekerID    string            `json:"seeker_id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	ResumeURL   string            `json:"resume_url,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Interview is one scheduled meeting attached to an application. An
// application may hold several interviews at once; scheduling is additive.
type Interview struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time,omitempty"`
	IsVirtual     bool            `json:"is_virtual"`
	MeetingLink   string          `json:"meeting_link,omitempty"`
	Location      string          `json:"location,omitempty"`
	Description   string          `json:"description,omitempty"`
	Status        InterviewStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// JobInput carries the fields an employer supplies when posting a job.
type JobInput struct {
	Title       string
	Category    string
	Location    string
	JobType     string
	SalaryMin   int64
	SalaryMax   int64
	Description string
	Deadline    *time.Time
}

// Validate rejects malformed input before anything touches the store.
func (in JobInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if in.SalaryMin < 0 || in.SalaryMax < 0 {
		return fmt.Errorf("%w: salary bounds must be >= 0", ErrValidation)
	}
	if in.SalaryMax > 0 && in.SalaryMin > in.SalaryMax {
		return fmt.Errorf("%w: salary_min exceeds salary_max", ErrValidation)
	}
	return nil
}

// JobUpdate is a partial update; nil fields stay unchanged. ClearDeadline
// removes an existing deadline (a nil Deadline alone means "leave as is").
type JobUpdate struct {
	Title         *string
	Category      *string
	Location      *string
	JobType       *string
	SalaryMin     *int64
	SalaryMax     *int64
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	IsActive      *bool
}

// ApplicationInput carries seeker-supplied fields. ResumeURL is an opaque
// reference produced by the upload collaborator; the core never interprets it.
type ApplicationInput struct {
	CoverLetter string
	ResumeURL   string
}

// InterviewInput carries the fields for scheduling one interview.
type InterviewInput struct {
	ScheduledDate time.Time
	ScheduledTime string
	IsVirtual     bool
	MeetingLink   string
	Location      string
	Description   string
}

// Validate checks required fields. The scheduled date is deliberately not
// checked against the clock; see ListUpcomingInterviews for the read-side
// filtering that keeps stale dates harmless.
func (in InterviewInput) Validate() error {
	if in.ScheduledDate.IsZero() {
		return fmt.Errorf("%w: scheduled_date is required", ErrValidation)
	}
	return nil
}

// InterviewUpdate is a partial update; nil fields stay unchanged.
type InterviewUpdate struct {
	ScheduledDate *time.Time
	ScheduledTime *string
	IsVirtual     *bool
	MeetingLink   *string
	Location      *string
	Description   *string
	Status        *InterviewStatus
}

// JobFilter enumerates the supported public-listing filters so they stay
// exhaustively testable instead of ad hoc per call site.
type JobFilter struct {
	Category  string
	Location  string
	JobType   string
	Search    string
	MinSalary int64
	Limit     int
	Offset    int
}

var (
	// ErrNotFound covers both missing records and ownership mismatches, so a
	// failed lookup never confirms the existence of another actor's records.
	ErrNotFound = errors.New("not found")
	// ErrJobClosed rejects applications against inactive or expired jobs.
	ErrJobClosed = errors.New("job is not accepting applications")
	// ErrDuplicateApplication enforces the one-application-per-pair invariant.
	ErrDuplicateApplication = errors.New("application already exists for this job")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrValidation           = errors.New("invalid input")
)
