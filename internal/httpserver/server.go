package httpserver

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/query"
	"github.com/tinytelemetry/logway/internal/tracker"
)

// TrackerStatus is the part of the worst-latency tracker reported by /health.
type TrackerStatus interface {
	State() tracker.State
	Current() []model.LogEntry
}

// Server provides the HTTP read API of the gateway.
type Server struct {
	addr      string
	svc       *query.Service
	tracker   TrackerStatus
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. status may be nil when the
// worst-latency view is disabled.
func NewServer(addr string, svc *query.Service, status TrackerStatus) *Server {
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		svc:       svc,
		tracker:   status,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/logs/rethinkdb", s.handleEntries(query.BackendRethinkDB))
	r.GET("/logs/cratedb", s.handleEntries(query.BackendCrateDB))
	r.GET("/logs/rethinkdb/loglevel", s.handleLogLevel)
	r.GET("/logs/rethinkdb/loglevelstats", s.handleLevelStats)
	r.GET("/logs/rethinkdb/timestats", s.handleTimeStats)
	r.GET("/logs/rethinkdb/worstcalls", s.handleWorstCalls)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestLogger stamps each request with an X-Request-ID and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()
		log.Printf("http: %s %s %s %d %s", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func statusFor(err error) int {
	switch {
	case query.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": query.Message(err)})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if s.tracker != nil {
		body["tracker"] = gin.H{
			"state":   s.tracker.State().String(),
			"entries": len(s.tracker.Current()),
		}
	} else {
		body["tracker"] = gin.H{"state": "disabled", "entries": 0}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleEntries(backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := s.svc.Entries(c.Request.Context(), backend, c.Query("min"), c.Query("max"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.PureJSON(http.StatusOK, entries)
	}
}

func (s *Server) handleLogLevel(c *gin.Context) {
	entries, err := s.svc.EntriesByLevel(c.Request.Context(), c.Query("min"), c.Query("max"), c.Query("logtype"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, entries)
}

func (s *Server) handleLevelStats(c *gin.Context) {
	stats, err := s.svc.LevelStats(c.Request.Context(), c.Query("min"), c.Query("max"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, stats)
}

func (s *Server) handleTimeStats(c *gin.Context) {
	hist, err := s.svc.TimeStats(c.Request.Context(), c.Query("min"), c.Query("max"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, hist)
}

func (s *Server) handleWorstCalls(c *gin.Context) {
	c.PureJSON(http.StatusOK, s.svc.WorstCalls())
}
