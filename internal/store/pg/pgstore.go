package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/biileprince/Employme-sub001/internal/board"
	"github.com/biileprince/Employme-sub001/internal/ids"
)

// Store implements board.Service on PostgreSQL. Every multi-row mutation runs
// inside one transaction; the schema's ON DELETE CASCADE foreign keys carry
// the job -> application -> interview cascade.
type Store struct {
	db *sql.DB
}

var _ board.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle (tests use this with sqlmock).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const jobColumns = `id, employer_id, title, category, location, job_type, salary_min, salary_max, description, is_active, deadline, created_at, updated_at`

const appColumns = `id, job_id, seeker_id, status, cover_letter, resume_url, applied_at, updated_at`

const interviewColumns = `id, application_id, scheduled_date, scheduled_time, is_virtual, meeting_link, location, description, status, created_at, updated_at`

func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	// Single bulk conditional update: idempotent and safe under concurrent
	// sweeps, no read-then-write loop to lose updates in.
	res, err := s.db.ExecContext(ctx, `
		update jobs set is_active = false, updated_at = now()
		where is_active = true and deadline is not null and deadline < now()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CreateJob(ctx context.Context, employerID string, in board.JobInput) (board.Job, error) {
	if strings.TrimSpace(employerID) == "" {
		return board.Job{}, board.ErrNotFound
	}
	if err := in.Validate(); err != nil {
		return board.Job{}, err
	}

	id := ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into jobs (id, employer_id, title, category, location, job_type, salary_min, salary_max, description, is_active, deadline)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,true,$10)
		returning `+jobColumns,
		id, employerID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Category),
		strings.TrimSpace(in.Location), strings.TrimSpace(in.JobType),
		in.SalaryMin, in.SalaryMax, in.Description, in.Deadline)
	return scanJob(row)
}

func (s *Store) UpdateJob(ctx context.Context, jobID, employerID string, upd board.JobUpdate) (board.Job, error) {
	set := []string{"updated_at = now()"}
	args := []any{jobID, employerID}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return board.Job{}, board.ErrValidation
		}
		add("title", strings.TrimSpace(*upd.Title))
	}
	if upd.Category != nil {
		if strings.TrimSpace(*upd.Category) == "" {
			return board.Job{}, board.ErrValidation
		}
		add("category", strings.TrimSpace(*upd.Category))
	}
	if upd.Location != nil {
		add("location", strings.TrimSpace(*upd.Location))
	}
	if upd.JobType != nil {
		add("job_type", strings.TrimSpace(*upd.JobType))
	}
	if upd.SalaryMin != nil {
		add("salary_min", *upd.SalaryMin)
	}
	if upd.SalaryMax != nil {
		add("salary_max", *upd.SalaryMax)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ClearDeadline {
		set = append(set, "deadline = null")
	} else if upd.Deadline != nil {
		add("deadline", *upd.Deadline)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}

	row := s.db.QueryRowContext(ctx, `
		update jobs set `+strings.Join(set, ", ")+`
		where id = $1 and employer_id = $2
		returning `+jobColumns, args...)
	return scanJob(row)
}

func (s *Store) DeleteJob(ctx context.Context, jobID, employerID string) error {
	// FK cascades remove the job's applications and their interviews within
	// the same implicit transaction; no partial cascade is observable.
	res, err := s.db.ExecContext(ctx,
		`delete from jobs where id = $1 and employer_id = $2`, jobID, employerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return board.ErrNotFound
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (board.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+jobColumns+` from jobs where id = $1`, jobID)
	return scanJob(row)
}

func (s *Store) ListJobs(ctx context.Context, f board.JobFilter) ([]board.Job, error) {
	// deadline re-checked here so a stale active row never surfaces even if
	// the caller's sweep failed (best-effort enforcement).
	where := []string{"is_active = true", "(deadline is null or deadline >= now())"}
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Category != "" {
		add("lower(category) = lower($%d)", f.Category)
	}
	if f.Location != "" {
		add("location ilike '%%' || $%d || '%%'", f.Location)
	}
	if f.JobType != "" {
		add("lower(job_type) = lower($%d)", f.JobType)
	}
	if f.MinSalary > 0 {
		add("salary_max >= $%d", f.MinSalary)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		where = append(where, fmt.Sprintf("(title ilike '%%' || $%d || '%%' or description ilike '%%' || $%d || '%%')", n, n))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := `select ` + jobColumns + ` from jobs where ` + strings.Join(where, " and ") +
		fmt.Sprintf(` order by created_at desc, id desc limit $%d offset $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *Store) ListEmployerJobs(ctx context.Context, employerID string) ([]board.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+jobColumns+` from jobs where employer_id = $1 order by created_at desc`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *Store) Apply(ctx context.Context, jobID, seekerID string, in board.ApplicationInput) (board.Application, error) {
	if strings.TrimSpace(seekerID) == "" {
		return board.Application{}, board.ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return board.Application{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Eligibility re-checked under lock so a job closing between the sweep
	// and the insert cannot slip an application in.
	var isActive bool
	var deadline sql.NullTime
	err = tx.QueryRowContext(ctx,
		`select is_active, deadline from jobs where id = $1 for share`, jobID).
		Scan(&isActive, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Application{}, board.ErrNotFound
	}
	if err != nil {
		return board.Application{}, err
	}
	if !isActive || (deadline.Valid && deadline.Time.Before(time.Now())) {
		return board.Application{}, board.ErrJobClosed
	}

	id := ids.New()
	row := tx.QueryRowContext(ctx, `
		insert into applications (id, job_id, seeker_id, status, cover_letter, resume_url)
		values ($1,$2,$3,$4,$5,$6)
		returning `+appColumns,
		id, jobID, seekerID, string(board.StatusPending), in.CoverLetter, in.ResumeURL)
	app, err := scanApplication(row)
	if err != nil {
		if isUniqueViolation(err) {
			return board.Application{}, board.ErrDuplicateApplication
		}
		return board.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return board.Application{}, err
	}
	return app, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, appID, employerID string, status board.ApplicationStatus) (board.Application, error) {
	st, err := board.ParseApplicationStatus(string(status))
	if err != nil {
		return board.Application{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return board.Application{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// The current status is read under lock so the transition policy sees the
	// row it is about to overwrite; ownership is enforced by the same join.
	// Racing updates serialize on the row lock and the last commit wins.
	var current string
	err = tx.QueryRowContext(ctx, `
		select a.status from applications a
		join jobs j on j.id = a.job_id
		where a.id = $1 and j.employer_id = $2
		for update of a
	`, appID, employerID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Application{}, board.ErrNotFound
	}
	if err != nil {
		return board.Application{}, err
	}
	from, err := board.ParseApplicationStatus(current)
	if err != nil {
		return board.Application{}, err
	}
	if !board.CanTransition(from, st) {
		return board.Application{}, board.ErrInvalidStatus
	}

	row := tx.QueryRowContext(ctx, `
		update applications
		set status = $2, updated_at = now()
		where id = $1
		returning `+appColumns,
		appID, string(st))
	app, err := scanApplication(row)
	if err != nil {
		return board.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return board.Application{}, err
	}
	return app, nil
}

func (s *Store) ListSeekerApplications(ctx context.Context, seekerID string) ([]board.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+appColumns+` from applications where seeker_id = $1 order by applied_at desc`, seekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (s *Store) ListJobApplications(ctx context.Context, jobID, employerID string) ([]board.Application, error) {
	// Ownership check first so an unowned job reads as not-found rather than
	// an empty list.
	var one int
	err := s.db.QueryRowContext(ctx,
		`select 1 from jobs where id = $1 and employer_id = $2`, jobID, employerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, board.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select `+appColumns+` from applications where job_id = $1 order by applied_at desc`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (s *Store) ListEmployerApplications(ctx context.Context, employerID string, limit, offset int) ([]board.Application, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from applications a
		join jobs j on j.id = a.job_id
		where j.employer_id = $1
	`, employerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.job_id, a.seeker_id, a.status, a.cover_letter, a.resume_url, a.applied_at, a.updated_at
		from applications a
		join jobs j on j.id = a.job_id
		where j.employer_id = $1
		order by a.applied_at desc
		limit $2 offset $3
	`, employerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (s *Store) ScheduleInterview(ctx context.Context, appID, employerID string, in board.InterviewInput) (board.Interview, error) {
	if err := in.Validate(); err != nil {
		return board.Interview{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return board.Interview{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Ownership chain application -> job -> employer, locked against a
	// concurrent job/application delete until the insert commits.
	var one int
	err = tx.QueryRowContext(ctx, `
		select 1 from applications a
		join jobs j on j.id = a.job_id
		where a.id = $1 and j.employer_id = $2
		for share of a
	`, appID, employerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Interview{}, board.ErrNotFound
	}
	if err != nil {
		return board.Interview{}, err
	}

	id := ids.New()
	row := tx.QueryRowContext(ctx, `
		insert into interviews (id, application_id, scheduled_date, scheduled_time, is_virtual, meeting_link, location, description, status)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning `+interviewColumns,
		id, appID, in.ScheduledDate, in.ScheduledTime, in.IsVirtual,
		in.MeetingLink, in.Location, in.Description, string(board.InterviewScheduled))
	iv, err := scanInterview(row)
	if err != nil {
		return board.Interview{}, err
	}
	if err := tx.Commit(); err != nil {
		return board.Interview{}, err
	}
	return iv, nil
}

func (s *Store) UpdateInterview(ctx context.Context, interviewID, employerID string, upd board.InterviewUpdate) (board.Interview, error) {
	set := []string{"updated_at = now()"}
	args := []any{interviewID, employerID}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.ScheduledDate != nil {
		if upd.ScheduledDate.IsZero() {
			return board.Interview{}, board.ErrValidation
		}
		add("scheduled_date", *upd.ScheduledDate)
	}
	if upd.ScheduledTime != nil {
		add("scheduled_time", *upd.ScheduledTime)
	}
	if upd.IsVirtual != nil {
		add("is_virtual", *upd.IsVirtual)
	}
	if upd.MeetingLink != nil {
		add("meeting_link", *upd.MeetingLink)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Status != nil {
		st, err := board.ParseInterviewStatus(string(*upd.Status))
		if err != nil {
			return board.Interview{}, err
		}
		add("status", string(st))
	}

	row := s.db.QueryRowContext(ctx, `
		update interviews i
		set `+strings.Join(set, ", ")+`
		from applications a, jobs j
		where i.id = $1 and a.id = i.application_id and j.id = a.job_id and j.employer_id = $2
		returning i.id, i.application_id, i.scheduled_date, i.scheduled_time, i.is_virtual, i.meeting_link, i.location, i.description, i.status, i.created_at, i.updated_at
	`, args...)
	return scanInterview(row)
}

func (s *Store) DeleteInterview(ctx context.Context, interviewID, employerID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from interviews i
		using applications a, jobs j
		where i.id = $1 and a.id = i.application_id and j.id = a.job_id and j.employer_id = $2
	`, interviewID, employerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return board.ErrNotFound
	}
	return nil
}

func (s *Store) ListApplicationInterviews(ctx context.Context, appID, actorID string, employerView bool) ([]board.Interview, error) {
	var one int
	var err error
	if employerView {
		err = s.db.QueryRowContext(ctx, `
			select 1 from applications a
			join jobs j on j.id = a.job_id
			where a.id = $1 and j.employer_id = $2
		`, appID, actorID).Scan(&one)
	} else {
		err = s.db.QueryRowContext(ctx,
			`select 1 from applications where id = $1 and seeker_id = $2`, appID, actorID).Scan(&one)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, board.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select `+interviewColumns+` from interviews
		where application_id = $1
		order by scheduled_date asc, created_at asc
	`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInterviews(rows)
}

func (s *Store) ListUpcomingInterviews(ctx context.Context, seekerID string) ([]board.Interview, error) {
	rows, err := s.db.QueryContext(ctx, `
		select i.id, i.application_id, i.scheduled_date, i.scheduled_time, i.is_virtual, i.meeting_link, i.location, i.description, i.status, i.created_at, i.updated_at
		from interviews i
		join applications a on a.id = i.application_id
		where a.seeker_id = $1
		  and i.scheduled_date > now()
		  and i.status in ('SCHEDULED','CONFIRMED')
		order by i.scheduled_date asc
	`, seekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInterviews(rows)
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (board.Job, error) {
	var j board.Job
	var deadline sql.NullTime
	err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Category, &j.Location, &j.JobType,
		&j.SalaryMin, &j.SalaryMax, &j.Description, &j.IsActive, &deadline, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Job{}, board.ErrNotFound
	}
	if err != nil {
		return board.Job{}, err
	}
	if deadline.Valid {
		t := deadline.Time
		j.Deadline = &t
	}
	return j, nil
}

func collectJobs(rows *sql.Rows) ([]board.Job, error) {
	var out []board.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (board.Application, error) {
	var a board.Application
	var status string
	err := row.Scan(&a.ID, &a.JobID, &a.SeekerID, &status, &a.CoverLetter, &a.ResumeURL, &a.AppliedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Application{}, board.ErrNotFound
	}
	if err != nil {
		return board.Application{}, err
	}
	a.Status = board.ApplicationStatus(status)
	return a, nil
}

func collectApplications(rows *sql.Rows) ([]board.Application, error) {
	var out []board.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanInterview(row rowScanner) (board.Interview, error) {
	var iv board.Interview
	var status string
	err := row.Scan(&iv.ID, &iv.ApplicationID, &iv.ScheduledDate, &iv.ScheduledTime, &iv.IsVirtual,
		&iv.MeetingLink, &iv.Location, &iv.Description, &status, &iv.CreatedAt, &iv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Interview{}, board.ErrNotFound
	}
	if err != nil {
		return board.Interview{}, err
	}
	iv.Status = board.InterviewStatus(status)
	return iv, nil
}

func collectInterviews(rows *sql.Rows) ([]board.Interview, error) {
	var out []board.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
