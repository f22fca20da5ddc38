package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/biileprince/Employme-sub001/internal/board"
	"github.com/biileprince/Employme-sub001/internal/obs"
)

// ReadyProbe is a readiness check (DB ping when a store is attached).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the board service.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	svc        board.Service

	tokenTTL   time.Duration
	rateBurst  int
	ratePerSec int
}

// SetTokenTTL overrides the lifetime of tokens minted by /v1/auth/token.
func (a *API) SetTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		a.tokenTTL = ttl
	}
}

// SetRateLimit overrides the per-client rate limiter parameters.
func (a *API) SetRateLimit(burst, perSec int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
}

func New(rp ReadyProbe, version string, svc board.Service) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		svc:        svc,
		tokenTTL:   time.Hour,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/token", a.handleToken)

	a.mux.HandleFunc("/v1/jobs", a.handleJobsCollection)
	a.mux.HandleFunc("/v1/jobs/", a.handleJobResource)
	a.mux.HandleFunc("/v1/applications/apply", a.handleApply)
	a.mux.HandleFunc("/v1/applications/my-applications", a.handleMyApplications)
	a.mux.HandleFunc("/v1/applications/employer", a.handleEmployerApplications)
	a.mux.HandleFunc("/v1/applications/job/", a.handleJobApplications)
	a.mux.HandleFunc("/v1/applications/", a.handleApplicationResource)
	a.mux.HandleFunc("/v1/interviews/upcoming", a.handleUpcomingInterviews)
	a.mux.HandleFunc("/v1/interviews/", a.handleInterviewResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = LoggingJSON(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "employme-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not ready: "+err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]any{"status": "ready"})
}

// sweep runs the lazy expiry pass that piggybacks on listing reads. Failures
// are logged and never fail the read that triggered them; the listing then
// falls back to the previously stored is_active values.
func (a *API) sweep(ctx context.Context) {
	expired, err := a.svc.SweepExpired(ctx)
	obs.ObserveSweep(expired, err)
	if err != nil {
		obs.LogEvent("error", "expiry sweep failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// --- envelope & error translation ---

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: false, Message: msg})
}

// handleBoardError is the single translation point from domain sentinels to
// the HTTP taxonomy; no handler writes its own ad hoc error response.
func handleBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrValidation), errors.Is(err, board.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, board.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, board.ErrDuplicateApplication):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, board.ErrJobClosed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
