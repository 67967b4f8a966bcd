package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/difficulty"
	"github.com/abhisek/laesemaskine/internal/observe"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

// Request limits.
const (
	maxBodyBytes     = 32 << 20
	defaultWordCount = 20
	maxWordCount     = 200
	shutdownTimeout  = 5 * time.Second
)

// Server exposes a backend.Backend over HTTP.
type Server struct {
	svc     backend.Backend
	version string
	metrics *observe.Metrics
	logger  *slog.Logger
	// metricsHandler is mounted at /metrics when set.
	metricsHandler http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithVersion sets the version reported by /api/health.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// WithMetrics records request durations and serves h at /metrics.
func WithMetrics(m *observe.Metrics, h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = m
		s.metricsHandler = h
	}
}

func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server over svc.
func NewServer(svc backend.Backend, opts ...ServerOption) *Server {
	s := &Server{svc: svc, version: "(devel)", logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /api/words", s.words)

	mux.HandleFunc("POST /api/sessions/start", s.startSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("POST /api/sessions/{id}/answer", s.submitAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/finish", s.finishSession)
	mux.HandleFunc("POST /api/sessions/{id}/audio_key", s.setAudioKey)
	mux.HandleFunc("GET /api/me/sessions", s.listSessions)
	mux.HandleFunc("GET /api/answers", s.answers)

	mux.HandleFunc("POST /api/disputes", s.createDispute)
	mux.HandleFunc("GET /api/admin/overview", s.overview)
	mux.HandleFunc("GET /api/admin/disputes", s.disputes)
	mux.HandleFunc("GET /api/admin/disputes/{id}/audio", s.disputeAudio)
	mux.HandleFunc("DELETE /api/admin/disputes/{id}/audio", s.deleteDisputeAudio)
	mux.HandleFunc("PATCH /api/admin/disputes/{id}", s.reviewDispute)
	mux.HandleFunc("POST /api/admin/disputes/{id}/send_to_ai", s.sendToAI)
	mux.HandleFunc("GET /api/admin/student/{id}/difficulty", s.difficulty)
	mux.HandleFunc("GET /api/admin/student/{id}/drilldown", s.drilldown)

	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	return observe.Middleware(s.metrics, s.logger)(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Version: s.version})
}

func (s *Server) words(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level, err := intParam(q.Get("level"), difficulty.MinLevel)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: level: %v", backend.ErrInvalidInput, err))
		return
	}
	count, err := intParam(q.Get("count"), defaultWordCount)
	if err != nil || count < 1 {
		s.fail(w, r, fmt.Errorf("%w: count must be a positive integer", backend.ErrInvalidInput))
		return
	}
	band, err := intParam(q.Get("band"), 0)
	if err != nil || band < 0 {
		s.fail(w, r, fmt.Errorf("%w: band must be >= 0", backend.ErrInvalidInput))
		return
	}
	level = difficulty.ClampLevel(level)
	count = min(count, maxWordCount)

	words, err := s.svc.FetchWords(r.Context(), level, count, band)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if words == nil {
		words = []session.Word{}
	}
	writeJSON(w, http.StatusOK, wordsResponse{OK: true, Level: level, Count: len(words), Words: words})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req backend.StartRequest
	if !s.decode(w, r, &req) {
		return
	}
	sc, err := s.svc.StartSession(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{OK: true, SessionID: sc.SessionID, Context: sc})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var rec session.AnswerRecord
	if !s.decode(w, r, &rec) {
		return
	}
	v, err := s.svc.SubmitAnswer(r.Context(), r.PathValue("id"), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{
		OK:            true,
		SessionWordID: v.SessionWordID,
		Correct:       v.Correct,
		Diagnostics:   v.Diagnostics,
		ErrorType:     string(v.Diagnostics.ErrorType),
	})
}

func (s *Server) finishSession(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.FinishSession(r.Context(), r.PathValue("id"), req.EstimatedLevel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, finishResponse{OK: true, Session: res})
}

func (s *Server) setAudioKey(w http.ResponseWriter, r *http.Request) {
	var req audioKeyRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.svc.SaveResult(r.Context(), session.Result{SessionID: r.PathValue("id"), AudioKey: req.AudioKey})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	student := r.URL.Query().Get("student_id")
	if student == "" {
		s.fail(w, r, fmt.Errorf("%w: student_id is required", backend.ErrInvalidInput))
		return
	}
	list, err := s.svc.ListSessions(r.Context(), student)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []backend.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{OK: true, Sessions: list})
}

func (s *Server) answers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0)
	if err != nil || limit < 0 {
		s.fail(w, r, fmt.Errorf("%w: limit must be >= 0", backend.ErrInvalidInput))
		return
	}
	items, err := s.svc.Answers(r.Context(), backend.AnswerFilter{StudentID: q.Get("student_id"), Limit: limit})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeItems(w, items)
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []backend.StudentOverview{}
	}
	writeJSON(w, http.StatusOK, overviewResponse{OK: true, Students: list})
}

func (s *Server) createDispute(w http.ResponseWriter, r *http.Request) {
	var req backend.DisputeRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, err := s.svc.CreateDispute(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputeResponse{OK: true, DisputeID: d.ID, Dispute: d})
}

func (s *Server) disputes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0)
	if err != nil || limit < 0 {
		s.fail(w, r, fmt.Errorf("%w: limit must be >= 0", backend.ErrInvalidInput))
		return
	}
	list, err := s.svc.Disputes(r.Context(), store.DisputeFilter{Status: q.Get("status"), Limit: limit})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []store.Dispute{}
	}
	writeJSON(w, http.StatusOK, disputesResponse{OK: true, Disputes: list})
}

func (s *Server) disputeAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.DisputeAudio(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if b == nil || len(b.Data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	mime := b.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Data)
}

func (s *Server) deleteDisputeAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteDisputeAudio(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) reviewDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.ReviewDispute(r.Context(), id, req.Status); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) sendToAI(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req sendToAIRequest
	if !s.decode(w, r, &req) {
		return
	}
	queued, err := s.svc.SendToAI(r.Context(), id, req.ErrorType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sendToAIResponse{OK: true, Queued: queued})
}

func (s *Server) difficulty(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Difficulty(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) drilldown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.svc.Drilldown(r.Context(), r.PathValue("id"), q.Get("group"), q.Get("key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeItems(w, items)
}

// decode reads a JSON body. An empty body leaves dst untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, fmt.Errorf("%w: %v", backend.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(w, r, fmt.Errorf("%w: bad id %q", backend.ErrInvalidInput, r.PathValue("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	resp := errorResponse{Error: kind}
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		resp.Message = err.Error()
	}
	writeJSON(w, code, resp)
}

func writeItems(w http.ResponseWriter, items []backend.AnswerItem) {
	if items == nil {
		items = []backend.AnswerItem{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{OK: true, Items: items})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
