package httpapi

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/service"
	"github.com/pirguard/pirguard/internal/pirguard/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

type Dependencies struct {
	Logger *log.Logger
	Addr   string
	Status service.StatusReporter
	Events store.EventStore
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	status     service.StatusReporter
	events     store.EventStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger: d.Logger,
		mux:    mux,
		status: d.Status,
		events: d.Events,
	}

	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse(s.status.Status(), time.Now().UTC())

	if wantsProtobuf(r) {
		msg, err := statusToProto(resp)
		if err != nil {
			s.logger.Printf("status proto error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	recs, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Printf("events error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	resp := eventsResponse(recs)

	if wantsProtobuf(r) {
		msg, err := eventsToProto(resp)
		if err != nil {
			s.logger.Printf("events proto error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
