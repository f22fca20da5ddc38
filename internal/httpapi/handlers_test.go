package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/biileprince/Employme-sub001/internal/auth"
	"github.com/biileprince/Employme-sub001/internal/board"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("EMPLOYME_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	api := New(ReadyProbe{}, "test", board.NewInMemory())
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) decode(resp *http.Response, wantStatus int, data any) envelope {
	c.t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("status = %d, want %d", resp.StatusCode, wantStatus)
	}
	var env envelope
	if data != nil {
		raw := struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
			Message string          `json:"message"`
		}{}
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			c.t.Fatalf("decode envelope: %v", err)
		}
		env.Success = raw.Success
		env.Message = raw.Message
		if len(raw.Data) > 0 {
			if err := json.Unmarshal(raw.Data, data); err != nil {
				c.t.Fatalf("decode data: %v", err)
			}
		}
		return env
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func (c *apiClient) token(userID string, role auth.Role) string {
	c.t.Helper()
	var got tokenResponse
	env := c.decode(c.do(http.MethodPost, "/v1/auth/token", tokenRequest{UserID: userID, Role: string(role)}, ""), http.StatusOK, &got)
	if !env.Success || got.Token == "" {
		c.t.Fatalf("token mint failed: %+v", env)
	}
	return got.Token
}

func (c *apiClient) createJob(token string, req jobRequest) jobView {
	c.t.Helper()
	var job jobView
	c.decode(c.do(http.MethodPost, "/v1/jobs", req, token), http.StatusCreated, &job)
	return job
}

func (c *apiClient) apply(token, jobID string) board.Application {
	c.t.Helper()
	var app board.Application
	c.decode(c.do(http.MethodPost, "/v1/applications/apply", applyRequest{JobID: jobID}, token), http.StatusCreated, &app)
	return app
}

func TestExpiredJobDisappearsFromListing(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)

	yesterday := time.Now().Add(-24 * time.Hour).UTC()
	stale := c.createJob(employer, jobRequest{Title: "Expired Role", Category: "Ops", Deadline: &yesterday})
	fresh := c.createJob(employer, jobRequest{Title: "Open Role", Category: "Ops"})

	var jobs []jobView
	c.decode(c.do(http.MethodGet, "/v1/jobs", nil, ""), http.StatusOK, &jobs)
	if len(jobs) != 1 || jobs[0].ID != fresh.ID {
		t.Fatalf("expected only the open job, got %+v", jobs)
	}

	// The stale job is still readable directly but computes as CLOSED.
	var single jobView
	c.decode(c.do(http.MethodGet, "/v1/jobs/"+stale.ID, nil, ""), http.StatusOK, &single)
	if single.Status != "CLOSED" {
		t.Fatalf("stale job status = %s, want CLOSED", single.Status)
	}

	// Owner listing computes both statuses after the sweep.
	var mine []jobView
	c.decode(c.do(http.MethodGet, "/v1/jobs/my-jobs", nil, employer), http.StatusOK, &mine)
	if len(mine) != 2 {
		t.Fatalf("expected 2 owned jobs, got %d", len(mine))
	}
}

func TestApplyFlowAndDuplicateConflict(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)
	seeker := c.token("seeker-1", auth.RoleJobSeeker)

	job := c.createJob(employer, jobRequest{Title: "Backend Engineer", Category: "Engineering"})

	app := c.apply(seeker, job.ID)
	if app.Status != board.StatusPending {
		t.Fatalf("new application status = %s, want PENDING", app.Status)
	}

	env := c.decode(c.do(http.MethodPost, "/v1/applications/apply", applyRequest{JobID: job.ID}, seeker), http.StatusConflict, nil)
	if env.Success {
		t.Fatal("duplicate apply should not report success")
	}

	// Applying to a closed job is rejected as unprocessable.
	inactive := false
	c.decode(c.do(http.MethodPut, "/v1/jobs/"+job.ID, jobUpdateRequest{IsActive: &inactive}, employer), http.StatusOK, nil)
	other := c.token("seeker-2", auth.RoleJobSeeker)
	c.decode(c.do(http.MethodPost, "/v1/applications/apply", applyRequest{JobID: job.ID}, other), http.StatusUnprocessableEntity, nil)
}

func TestStatusUpdateOwnershipAndRoles(t *testing.T) {
	c := newTestAPI(t)
	owner := c.token("emp-1", auth.RoleEmployer)
	intruder := c.token("emp-2", auth.RoleEmployer)
	seeker := c.token("seeker-1", auth.RoleJobSeeker)

	job := c.createJob(owner, jobRequest{Title: "Role", Category: "Ops"})
	app := c.apply(seeker, job.ID)

	var updated board.Application
	c.decode(c.do(http.MethodPatch, "/v1/applications/"+app.ID+"/status", statusRequest{Status: "SHORTLISTED"}, owner), http.StatusOK, &updated)
	if updated.Status != board.StatusShortlisted {
		t.Fatalf("status = %s, want SHORTLISTED", updated.Status)
	}

	// Non-owner employer gets 404, not 403: existence is not confirmed.
	c.decode(c.do(http.MethodPatch, "/v1/applications/"+app.ID+"/status", statusRequest{Status: "REJECTED"}, intruder), http.StatusNotFound, nil)
	// Wrong role gets 403.
	c.decode(c.do(http.MethodPatch, "/v1/applications/"+app.ID+"/status", statusRequest{Status: "REJECTED"}, seeker), http.StatusForbidden, nil)
	// Unknown enum value gets 400.
	c.decode(c.do(http.MethodPatch, "/v1/applications/"+app.ID+"/status", statusRequest{Status: "REVIEWING"}, owner), http.StatusBadRequest, nil)
}

func TestInterviewLifecycleOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)
	seeker := c.token("seeker-1", auth.RoleJobSeeker)

	job := c.createJob(employer, jobRequest{Title: "Role", Category: "Ops"})
	app := c.apply(seeker, job.ID)

	d1 := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	d2 := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	var first, second board.Interview
	c.decode(c.do(http.MethodPost, "/v1/applications/"+app.ID+"/schedule-interview",
		interviewRequest{ScheduledDate: d1, ScheduledTime: "10:00", Location: "HQ"}, employer), http.StatusCreated, &first)
	c.decode(c.do(http.MethodPost, "/v1/applications/"+app.ID+"/schedule-interview",
		interviewRequest{ScheduledDate: d2, IsVirtual: true, MeetingLink: "https://meet.example/x"}, employer), http.StatusCreated, &second)

	// Both participants see both interviews; scheduling was additive.
	for _, token := range []string{employer, seeker} {
		var list []board.Interview
		c.decode(c.do(http.MethodGet, "/v1/applications/"+app.ID+"/interviews", nil, token), http.StatusOK, &list)
		if len(list) != 2 {
			t.Fatalf("expected 2 interviews, got %d", len(list))
		}
	}

	// Seeker cannot mutate interviews.
	confirmed := "CONFIRMED"
	c.decode(c.do(http.MethodPut, "/v1/interviews/"+first.ID, interviewUpdateRequest{Status: &confirmed}, seeker), http.StatusForbidden, nil)

	var updated board.Interview
	c.decode(c.do(http.MethodPut, "/v1/interviews/"+first.ID, interviewUpdateRequest{Status: &confirmed}, employer), http.StatusOK, &updated)
	if updated.Status != board.InterviewConfirmed || updated.Location != "HQ" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	var upcoming []board.Interview
	c.decode(c.do(http.MethodGet, "/v1/interviews/upcoming", nil, seeker), http.StatusOK, &upcoming)
	if len(upcoming) != 2 || upcoming[0].ID != first.ID {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	c.decode(c.do(http.MethodDelete, "/v1/interviews/"+second.ID, nil, employer), http.StatusOK, nil)
	c.decode(c.do(http.MethodDelete, "/v1/interviews/"+second.ID, nil, employer), http.StatusNotFound, nil)
}

func TestJobDeletionCascadesOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)
	seeker := c.token("seeker-1", auth.RoleJobSeeker)

	job := c.createJob(employer, jobRequest{Title: "Role", Category: "Ops"})
	app := c.apply(seeker, job.ID)
	when := time.Now().Add(24 * time.Hour).UTC()
	c.decode(c.do(http.MethodPost, "/v1/applications/"+app.ID+"/schedule-interview",
		interviewRequest{ScheduledDate: when}, employer), http.StatusCreated, nil)

	c.decode(c.do(http.MethodDelete, "/v1/jobs/"+job.ID, nil, employer), http.StatusOK, nil)

	c.decode(c.do(http.MethodGet, "/v1/jobs/"+job.ID, nil, ""), http.StatusNotFound, nil)
	c.decode(c.do(http.MethodGet, "/v1/applications/"+app.ID+"/interviews", nil, employer), http.StatusNotFound, nil)

	var apps []board.Application
	c.decode(c.do(http.MethodGet, "/v1/applications/my-applications", nil, seeker), http.StatusOK, &apps)
	if len(apps) != 0 {
		t.Fatalf("applications survived cascade: %+v", apps)
	}

	var upcoming []board.Interview
	c.decode(c.do(http.MethodGet, "/v1/interviews/upcoming", nil, seeker), http.StatusOK, &upcoming)
	if len(upcoming) != 0 {
		t.Fatalf("interviews survived cascade: %+v", upcoming)
	}
}

func TestEmployerApplicationsPagination(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)

	job := c.createJob(employer, jobRequest{Title: "Role", Category: "Ops"})
	for _, seeker := range []string{"s1", "s2", "s3"} {
		c.apply(c.token(seeker, auth.RoleJobSeeker), job.ID)
	}

	var page pagedApplications
	c.decode(c.do(http.MethodGet, "/v1/applications/employer?limit=2", nil, employer), http.StatusOK, &page)
	if page.Total != 3 || len(page.Items) != 2 {
		t.Fatalf("page = total %d items %d, want 3/2", page.Total, len(page.Items))
	}

	c.decode(c.do(http.MethodGet, "/v1/applications/employer?limit=2&offset=2", nil, employer), http.StatusOK, &page)
	if page.Total != 3 || len(page.Items) != 1 {
		t.Fatalf("second page = total %d items %d, want 3/1", page.Total, len(page.Items))
	}

	c.decode(c.do(http.MethodGet, "/v1/applications/employer?limit=0", nil, employer), http.StatusBadRequest, nil)
}

func TestValidationAtTheBoundary(t *testing.T) {
	c := newTestAPI(t)
	employer := c.token("emp-1", auth.RoleEmployer)

	// Missing required fields never reach the store.
	c.decode(c.do(http.MethodPost, "/v1/jobs", jobRequest{Category: "Ops"}, employer), http.StatusBadRequest, nil)
	// Unknown JSON fields are rejected.
	resp := c.do(http.MethodPost, "/v1/jobs", map[string]any{"title": "x", "category": "y", "bogus": true}, employer)
	c.decode(resp, http.StatusBadRequest, nil)
	// Missing body.
	c.decode(c.do(http.MethodPost, "/v1/jobs", nil, employer), http.StatusBadRequest, nil)
	// Bad query parameter.
	c.decode(c.do(http.MethodGet, "/v1/jobs?min_salary=abc", nil, ""), http.StatusBadRequest, nil)
}

func TestHealthAndReady(t *testing.T) {
	c := newTestAPI(t)
	c.decode(c.do(http.MethodGet, "/healthz", nil, ""), http.StatusOK, nil)
	c.decode(c.do(http.MethodGet, "/readyz", nil, ""), http.StatusOK, nil)

	u, _ := url.Parse(c.baseURL + "/nope")
	resp, err := c.client.Get(u.String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d, want 404", resp.StatusCode)
	}
}
