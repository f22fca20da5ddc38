package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/biileprince/Employme-sub001/internal/auth"
	"github.com/biileprince/Employme-sub001/internal/board"
)

var errInvalidPage = errors.New("limit must be 1..100 and offset must be >= 0")

type applyRequest struct {
	JobID       string `json:"job_id"`
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type interviewRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	IsVirtual     bool      `json:"is_virtual"`
	MeetingLink   string    `json:"meeting_link"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
}

type pagedApplications struct {
	Items  []board.Application `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

func (a *API) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	id, ok := requireRole(w, r, auth.RoleJobSeeker)
	if !ok {
		return
	}
	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	app, err := a.svc.Apply(r.Context(), strings.TrimSpace(req.JobID), id.ID, board.ApplicationInput{
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	})
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusCreated, app)
}

func (a *API) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id, ok := requireRole(w, r, auth.RoleJobSeeker)
	if !ok {
		return
	}
	apps, err := a.svc.ListSeekerApplications(r.Context(), id.ID)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, apps)
}

func (a *API) handleEmployerApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	limit, offset, err := parsePage(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	apps, total, err := a.svc.ListEmployerApplications(r.Context(), id.ID, limit, offset)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, pagedApplications{Items: apps, Total: total, Limit: limit, Offset: offset})
}

func (a *API) handleJobApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/v1/applications/job/")
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}

	apps, err := a.svc.ListJobApplications(r.Context(), jobID, id.ID)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, apps)
}

// handleApplicationResource dispatches /v1/applications/{id}/{action}.
func (a *API) handleApplicationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/applications/")
	appID, action, ok := strings.Cut(path, "/")
	if !ok || appID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch action {
	case "status":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.updateApplicationStatus(w, r, appID)
	case "schedule-interview":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		a.scheduleInterview(w, r, appID)
	case "interviews":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.listApplicationInterviews(w, r, appID)
	default:
		writeError(w, http.StatusNotFound, "resource not found")
	}
}

func (a *API) updateApplicationStatus(w http.ResponseWriter, r *http.Request, appID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := board.ParseApplicationStatus(req.Status)
	if err != nil {
		handleBoardError(w, err)
		return
	}

	app, err := a.svc.UpdateApplicationStatus(r.Context(), appID, id.ID, status)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (a *API) scheduleInterview(w http.ResponseWriter, r *http.Request, appID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	var req interviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	iv, err := a.svc.ScheduleInterview(r.Context(), appID, id.ID, board.InterviewInput{
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		IsVirtual:     req.IsVirtual,
		MeetingLink:   req.MeetingLink,
		Location:      req.Location,
		Description:   req.Description,
	})
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusCreated, iv)
}

func (a *API) listApplicationInterviews(w http.ResponseWriter, r *http.Request, appID string) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	// Both participants may read: the employer behind the job and the seeker
	// who applied. Each sees the rows through their own ownership check.
	var employerView bool
	switch id.Role {
	case auth.RoleEmployer:
		employerView = true
	case auth.RoleJobSeeker:
		employerView = false
	default:
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}

	list, err := a.svc.ListApplicationInterviews(r.Context(), appID, id.ID, employerView)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, list)
}
