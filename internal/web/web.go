// Package web exposes the merged store over a small JSON API. Rendering is
// someone else's problem; these endpoints are the engine's only outward
// surface besides logs.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/store"
)

// RefreshFunc re-ingests every configured source into the store. The
// implementation serializes concurrent calls, so the server may invoke it
// from any request goroutine alongside other triggers.
type RefreshFunc func(ctx context.Context) error

// Server provides HTTP APIs over one event store.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	mux     *http.ServeMux
	refresh RefreshFunc
}

// NewServer constructs a Server. refresh may be nil, in which case
// POST /api/refresh reports 503.
func NewServer(cfg *config.Config, st *store.Store, refresh RefreshFunc) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		mux:     http.NewServeMux(),
		refresh: refresh,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="studycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/assignments", s.handleAssignments)
	s.mux.HandleFunc("/api/studyplan", s.handleStudyPlan)
	s.mux.HandleFunc("/api/reminders", s.handleReminders)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON shape for /api/events.
type eventsResponse struct {
	Days  map[string][]model.Event `json:"days"`
	Total int                      `json:"total"`
}

// handleEvents returns per-date buckets.
//
// GET /api/events?date=2024-12-15        one bucket
// GET /api/events?from=...&to=...        inclusive range (both optional)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	var days map[string][]model.Event
	if date := q.Get("date"); date != "" {
		days = map[string][]model.Event{}
		if events := s.store.Events(date); events != nil {
			days[date] = events
		}
	} else {
		days = s.store.Range(q.Get("from"), q.Get("to"))
	}

	total := 0
	for _, bucket := range days {
		total += len(bucket)
	}
	writeJSON(w, http.StatusOK, eventsResponse{Days: days, Total: total})
}

// manualEntry is the POST /api/assignments request body.
type manualEntry struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	DueDate        string `json:"due_date"`
	Time           string `json:"time"`
	Course         string `json:"course"`
	AssignmentType string `json:"assignment_type"`
	Priority       string `json:"priority"`
}

// handleAssignments serves the sorted assignment view and accepts manual
// entries.
//
// GET  /api/assignments?sort=date|class|type|priority|category
// POST /api/assignments   {"title": ..., "due_date": "2024-12-16", ...}
func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		key := store.SortKey(r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, s.store.Assignments(key))

	case http.MethodPost:
		var entry manualEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}
		ev, err := model.NewManualAssignment(uuid.NewString(), model.ManualInput{
			Title:          entry.Title,
			Description:    entry.Description,
			DueDate:        entry.DueDate,
			Time:           entry.Time,
			Course:         entry.Course,
			AssignmentType: entry.AssignmentType,
			Priority:       model.ParsePriority(entry.Priority),
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.store.MergeBatch(model.SourceManual, []model.Event{ev})
		appLog.Info("manual assignment added", "id", ev.ID, "due", ev.DateKey)
		writeJSON(w, http.StatusCreated, ev)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleStudyPlan returns the generated study blocks in date order.
func (s *Server) handleStudyPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.StudyBlocks())
}

// reminder is the shape an external notification scheduler consumes.
type reminder struct {
	Title    string `json:"title"`
	DueDate  string `json:"due_date"`
	Time     string `json:"time,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// handleReminders exposes study blocks and high-priority manual assignments
// for the notification layer. The engine does not schedule or deliver
// anything itself.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reminders := make([]reminder, 0)
	for _, ev := range s.store.StudyBlocks() {
		reminders = append(reminders, reminder{
			Title:   ev.Title,
			DueDate: ev.DateKey,
			Time:    ev.StartTime,
		})
	}
	for _, a := range s.store.Assignments(store.SortByDate) {
		if a.Source == model.SourceManual && a.Priority == model.PriorityHigh && !a.Completed {
			reminders = append(reminders, reminder{
				Title:    a.Title,
				DueDate:  a.DueDate,
				Time:     a.StartTime,
				Priority: a.Priority.String(),
			})
		}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// handleRefresh triggers a synchronous source refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}

	if err := s.refresh(r.Context()); err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"events": s.store.Len()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	appLog.Info("HTTP server started", "listen", "http://"+s.cfg.Listen)

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
