package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/biileprince/Employme-sub001/internal/auth"
	"github.com/biileprince/Employme-sub001/internal/board"
)

type jobRequest struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	JobType     string     `json:"job_type"`
	SalaryMin   int64      `json:"salary_min"`
	SalaryMax   int64      `json:"salary_max"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

type jobUpdateRequest struct {
	Title         *string    `json:"title"`
	Category      *string    `json:"category"`
	Location      *string    `json:"location"`
	JobType       *string    `json:"job_type"`
	SalaryMin     *int64     `json:"salary_min"`
	SalaryMax     *int64     `json:"salary_max"`
	Description   *string    `json:"description"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
	IsActive      *bool      `json:"is_active"`
}

// jobView decorates a job with its computed two-state lifecycle status.
type jobView struct {
	board.Job
	Status string `json:"status"`
}

func viewJob(j board.Job, now time.Time) jobView {
	return jobView{Job: j, Status: j.LifecycleStatus(now)}
}

func viewJobs(jobs []board.Job, now time.Time) []jobView {
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, viewJob(j, now))
	}
	return out
}

func (a *API) handleJobsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listJobs(w, r)
	case http.MethodPost:
		a.createJob(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleJobResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	if path == "my-jobs" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.listMyJobs(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getJob(w, r, path)
	case http.MethodPut:
		a.updateJob(w, r, path)
	case http.MethodDelete:
		a.deleteJob(w, r, path)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	// Lazy expiry: every public listing runs the sweep first, best-effort.
	a.sweep(r.Context())

	q := r.URL.Query()
	filter := board.JobFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Location: strings.TrimSpace(q.Get("location")),
		JobType:  strings.TrimSpace(q.Get("job_type")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if raw := strings.TrimSpace(q.Get("min_salary")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "min_salary must be a non-negative integer")
			return
		}
		filter.MinSalary = v
	}
	var err error
	filter.Limit, filter.Offset, err = parsePage(q.Get("limit"), q.Get("offset"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := a.svc.ListJobs(r.Context(), filter)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, viewJobs(jobs, time.Now().UTC()))
}

func (a *API) listMyJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	a.sweep(r.Context())

	jobs, err := a.svc.ListEmployerJobs(r.Context(), id.ID)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, viewJobs(jobs, time.Now().UTC()))
}

func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := a.svc.CreateJob(r.Context(), id.ID, board.JobInput{
		Title:       req.Title,
		Category:    req.Category,
		Location:    req.Location,
		JobType:     req.JobType,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		handleBoardError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	writeData(w, http.StatusCreated, viewJob(job, time.Now().UTC()))
}

func (a *API) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := a.svc.GetJob(r.Context(), jobID)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	// Single-row reads bypass the sweep, so the computed status decides
	// whether a past-deadline job reads as CLOSED.
	writeData(w, http.StatusOK, viewJob(job, time.Now().UTC()))
}

func (a *API) updateJob(w http.ResponseWriter, r *http.Request, jobID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	var req jobUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := a.svc.UpdateJob(r.Context(), jobID, id.ID, board.JobUpdate{
		Title:         req.Title,
		Category:      req.Category,
		Location:      req.Location,
		JobType:       req.JobType,
		SalaryMin:     req.SalaryMin,
		SalaryMax:     req.SalaryMax,
		Description:   req.Description,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
		IsActive:      req.IsActive,
	})
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, viewJob(job, time.Now().UTC()))
}

func (a *API) deleteJob(w http.ResponseWriter, r *http.Request, jobID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	if err := a.svc.DeleteJob(r.Context(), jobID, id.ID); err != nil {
		handleBoardError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "job deleted")
}

func parsePage(rawLimit, rawOffset string, defLimit int) (limit, offset int, err error) {
	limit = defLimit
	if raw := strings.TrimSpace(rawLimit); raw != "" {
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 1 || v > 100 {
			return 0, 0, errInvalidPage
		}
		limit = v
	}
	if raw := strings.TrimSpace(rawOffset); raw != "" {
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 0 {
			return 0, 0, errInvalidPage
		}
		offset = v
	}
	return limit, offset, nil
}
