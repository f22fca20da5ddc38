package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/biileprince/Employme-sub001/internal/board"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestSweepExpiredBulkUpdate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("update jobs set is_active = false").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyDuplicateMapsToConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select is_active, deadline from jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "deadline"}).AddRow(true, nil))
	mock.ExpectQuery("insert into applications").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "applications_job_id_seeker_id_key"})
	mock.ExpectRollback()

	_, err := s.Apply(context.Background(), "job-1", "seeker-1", board.ApplicationInput{})
	if !errors.Is(err, board.ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyRejectsClosedJob(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select is_active, deadline from jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "deadline"}).AddRow(false, nil))
	mock.ExpectRollback()

	_, err := s.Apply(context.Background(), "job-1", "seeker-1", board.ApplicationInput{})
	if !errors.Is(err, board.ErrJobClosed) {
		t.Fatalf("expected ErrJobClosed, got %v", err)
	}
}

func TestApplyRejectsExpiredDeadline(t *testing.T) {
	s, mock := newMockStore(t)

	yesterday := time.Now().Add(-24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("select is_active, deadline from jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "deadline"}).AddRow(true, yesterday))
	mock.ExpectRollback()

	_, err := s.Apply(context.Background(), "job-1", "seeker-1", board.ApplicationInput{})
	if !errors.Is(err, board.ErrJobClosed) {
		t.Fatalf("expected ErrJobClosed, got %v", err)
	}
}

func TestUpdateApplicationStatusOwnershipAsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select a.status from applications a").
		WithArgs("app-1", "intruder").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := s.UpdateApplicationStatus(context.Background(), "app-1", "intruder", board.StatusShortlisted)
	if !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateApplicationStatusChecksTransitionFromStoredRow(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("select a.status from applications a").
		WithArgs("app-1", "emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PENDING"))
	mock.ExpectQuery("update applications").
		WithArgs("app-1", "HIRED").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "job_id", "seeker_id", "status", "cover_letter", "resume_url", "applied_at", "updated_at",
		}).AddRow("app-1", "job-1", "seeker-1", "HIRED", "", "", now, now))
	mock.ExpectCommit()

	got, err := s.UpdateApplicationStatus(context.Background(), "app-1", "emp-1", board.StatusHired)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != board.StatusHired {
		t.Fatalf("status = %s, want HIRED", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateApplicationStatusRejectsUnknownValue(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.UpdateApplicationStatus(context.Background(), "app-1", "emp-1", board.ApplicationStatus("REVIEWING"))
	if !errors.Is(err, board.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus before touching the store, got %v", err)
	}
}

func TestDeleteJobNotOwned(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("delete from jobs").
		WithArgs("job-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteJob(context.Background(), "job-1", "intruder"); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteInterviewThroughOwnershipChain(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("delete from interviews i").
		WithArgs("iv-1", "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.DeleteInterview(context.Background(), "iv-1", "emp-1"); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListUpcomingInterviewsFiltersInQuery(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "application_id", "scheduled_date", "scheduled_time", "is_virtual",
		"meeting_link", "location", "description", "status", "created_at", "updated_at",
	}).
		AddRow("iv-1", "app-1", now.Add(24*time.Hour), "10:00", true, "https://meet.example/x", "", "", "SCHEDULED", now, now).
		AddRow("iv-2", "app-2", now.Add(48*time.Hour), "", false, "", "HQ", "", "CONFIRMED", now, now)

	mock.ExpectQuery("from interviews i").
		WithArgs("seeker-1").
		WillReturnRows(rows)

	got, err := s.ListUpcomingInterviews(context.Background(), "seeker-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "iv-1" || got[1].Status != board.InterviewConfirmed {
		t.Fatalf("unexpected result: %+v", got)
	}
}
