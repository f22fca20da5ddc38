package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/biileprince/Employme-sub001/internal/auth"
	"github.com/biileprince/Employme-sub001/internal/board"
)

type interviewUpdateRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
	ScheduledTime *string    `json:"scheduled_time"`
	IsVirtual     *bool      `json:"is_virtual"`
	MeetingLink   *string    `json:"meeting_link"`
	Location      *string    `json:"location"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
}

func (a *API) handleUpcomingInterviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id, ok := requireRole(w, r, auth.RoleJobSeeker)
	if !ok {
		return
	}
	list, err := a.svc.ListUpcomingInterviews(r.Context(), id.ID)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (a *API) handleInterviewResource(w http.ResponseWriter, r *http.Request) {
	interviewID := strings.TrimPrefix(r.URL.Path, "/v1/interviews/")
	if interviewID == "" || strings.Contains(interviewID, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.updateInterview(w, r, interviewID)
	case http.MethodDelete:
		a.deleteInterview(w, r, interviewID)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) updateInterview(w http.ResponseWriter, r *http.Request, interviewID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	var req interviewUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := board.InterviewUpdate{
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		IsVirtual:     req.IsVirtual,
		MeetingLink:   req.MeetingLink,
		Location:      req.Location,
		Description:   req.Description,
	}
	if req.Status != nil {
		status, err := board.ParseInterviewStatus(*req.Status)
		if err != nil {
			handleBoardError(w, err)
			return
		}
		upd.Status = &status
	}

	iv, err := a.svc.UpdateInterview(r.Context(), interviewID, id.ID, upd)
	if err != nil {
		handleBoardError(w, err)
		return
	}
	writeData(w, http.StatusOK, iv)
}

func (a *API) deleteInterview(w http.ResponseWriter, r *http.Request, interviewID string) {
	id, ok := requireRole(w, r, auth.RoleEmployer)
	if !ok {
		return
	}
	if err := a.svc.DeleteInterview(r.Context(), interviewID, id.ID); err != nil {
		handleBoardError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "interview deleted")
}
