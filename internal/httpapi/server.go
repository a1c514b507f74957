package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	apimw "github.com/hamed0406/buzzmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/buzzmonitor/internal/jsonutil"
)

// Monitor is the control and query surface the API exposes.
type Monitor interface {
	Start() error
	Stop()
	IsRunning() bool
	Stats() domain.Stats
	QueryResult(id string) (domain.Outcome, bool)
	AllQueryResults() []domain.Outcome
}

type Server struct {
	Logger  *zap.Logger
	Monitor Monitor
}

func NewServer(l *zap.Logger, m Monitor) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Monitor: m}
}

// Router wires the API. Reads need a public or admin key, start/stop need an
// admin key; each group has its own per-IP rate limit.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(publicRPM, publicBurst))
			r.Use(apimw.RequireAny(keys))
			r.Get("/stats", s.handleStats)
			r.Get("/results", s.handleListResults)
			r.Get("/results/{id}", s.handleGetResult)
			r.Get("/monitor", s.handleMonitorState)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Use(apimw.RequireAdmin(keys))
			r.Post("/monitor/start", s.handleStart)
			r.Post("/monitor/stop", s.handleStop)
		})
	})
	return r
}

type statsResponse struct {
	TotalQueries           int     `json:"total_queries"`
	SuccessfulQueries      int     `json:"successful_queries"`
	FailedQueries          int     `json:"failed_queries"`
	AverageExecutionTimeMS float64 `json:"average_execution_time_ms"`
	UptimeMS               float64 `json:"uptime_ms"`
	Running                bool    `json:"running"`
}

type outcomeResponse struct {
	ID              string        `json:"id"`
	Status          domain.Status `json:"status"`
	ExecutionTimeMS *float64      `json:"execution_time_ms,omitempty"`
	Error           string        `json:"error,omitempty"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func toOutcomeResponse(o domain.Outcome) outcomeResponse {
	out := outcomeResponse{
		ID:        o.ID,
		Status:    o.Status,
		Error:     o.Error,
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
	}
	if o.ExecutionTime != nil {
		v := ms(*o.ExecutionTime)
		out.ExecutionTimeMS = &v
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonutil.Encode(w, v); err != nil {
		s.Logger.Warn("api_encode_error", zap.Error(err))
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.Monitor.Stats()
	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalQueries:           st.TotalQueries,
		SuccessfulQueries:      st.SuccessfulQueries,
		FailedQueries:          st.FailedQueries,
		AverageExecutionTimeMS: ms(st.AverageExecutionTime),
		UptimeMS:               ms(st.Uptime),
		Running:                s.Monitor.IsRunning(),
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	all := s.Monitor.AllQueryResults()
	out := make([]outcomeResponse, 0, len(all))
	for _, o := range all {
		out = append(out, toOutcomeResponse(o))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, ok := s.Monitor.QueryResult(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, toOutcomeResponse(o))
}

func (s *Server) handleMonitorState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"running": s.Monitor.IsRunning()})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Monitor.Start(); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			s.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		s.Logger.Error("api_start_error", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not start"})
		return
	}
	s.Logger.Info("api_monitor_started", zap.String("remote", r.RemoteAddr))
	s.writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Monitor.Stop()
	s.Logger.Info("api_monitor_stopped", zap.String("remote", r.RemoteAddr))
	s.writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}
