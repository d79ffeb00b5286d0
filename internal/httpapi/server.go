package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/clipscholar/video-study-generator/internal/history"
	"github.com/clipscholar/video-study-generator/internal/study"
)

type historyReader interface {
	Recent(ctx context.Context, videoID string, limit int) ([]history.Record, error)
}

type Server struct {
	svc       *study.Service
	history   historyReader
	sweepCron string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithHistory(reader historyReader) Option {
	return func(s *Server) {
		s.history = reader
	}
}

// WithSweepSchedule reports the cache sweep schedule on the health endpoint.
func WithSweepSchedule(cronExpr string) Option {
	return func(s *Server) {
		s.sweepCron = cronExpr
	}
}

func NewServer(svc *study.Service, opts ...Option) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/videos/", s.handleStudyMaterials)
	s.mux.HandleFunc("/api/webhooks/segments", s.handleSegmentWebhook)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/healthz", s.handleHealthz)
}
