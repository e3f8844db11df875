// Package ui serves a read-only view of a sweep's progress: the observed
// state of every parameter set and, when a results store is configured, the
// stored statistics of each run.
package ui

import (
	"context"
	"errors"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"piquant/app"
	"piquant/domain/parameters"
	"piquant/internal"
	"piquant/ports"
)

// Server represents the status web server of one sweep
type Server struct {
	router    *gin.Engine
	sweep     *app.Sweep
	sets      []parameters.Set
	results   ports.ResultsRepository
	templates *template.Template
	logger    *internal.Logger
}

// RunStatus is the observed state of one parameter set
type RunStatus struct {
	Name       string            `json:"name"`
	ReadsName  string            `json:"reads_name"`
	Parameters map[string]string `json:"parameters"`
	State      string            `json:"state"`
}

// ResultValue is a stored statistic; undefined values are null
type ResultValue struct {
	Stratifier string   `json:"stratifier,omitempty"`
	Bin        string   `json:"bin,omitempty"`
	Statistic  string   `json:"statistic"`
	Value      *float64 `json:"value"`
}

// NewServer creates the server. results may be nil.
func NewServer(sweep *app.Sweep, sets []parameters.Set, results ports.ResultsRepository) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:    gin.New(),
		sweep:     sweep,
		sets:      sets,
		results:   results,
		templates: template.Must(template.New("index.html").Parse(indexTemplate)),
		logger:    sweep.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/api/runs", s.handleRuns)
	s.router.GET("/api/runs/:name", s.handleRun)
	s.router.GET("/api/runs/:name/results", s.handleResults)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving sweep status on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// statuses observes every set afresh; nothing is cached
func (s *Server) statuses() []RunStatus {
	out := make([]RunStatus, 0, len(s.sets))
	for _, set := range s.sets {
		out = append(out, s.status(set))
	}
	return out
}

func (s *Server) status(set parameters.Set) RunStatus {
	params := make(map[string]string)
	for _, p := range s.sweep.Catalog.Parameters() {
		if v, ok := set.Value(p.Name); ok {
			params[p.Name] = p.ValueName(v)
		}
	}
	return RunStatus{
		Name:       s.sweep.Tracker.RunName(set),
		ReadsName:  s.sweep.Tracker.ReadsName(set),
		Parameters: params,
		State:      s.sweep.Tracker.Observe(set).String(),
	}
}

func (s *Server) find(name string) (parameters.Set, bool) {
	for _, set := range s.sets {
		if s.sweep.Tracker.RunName(set) == name {
			return set, true
		}
	}
	return parameters.Set{}, false
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sweep": s.sweep.ID.String()})
}

// handleRuns lists the observed state of every set
func (s *Server) handleRuns(c *gin.Context) {
	runs := s.statuses()
	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleRun(c *gin.Context) {
	set, ok := s.find(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown run"})
		return
	}
	c.JSON(http.StatusOK, s.status(set))
}

// handleResults returns the stored statistics of a run
func (s *Server) handleResults(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.find(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown run"})
		return
	}
	if s.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No results store configured"})
		return
	}

	stored, err := s.results.ListResults(c.Request.Context(), name)
	if err != nil {
		s.logger.Error("List results of %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read results"})
		return
	}
	values := make([]ResultValue, 0, len(stored))
	for _, r := range stored {
		v := ResultValue{Stratifier: r.Stratifier, Bin: r.BinLabel, Statistic: r.Statistic}
		if !math.IsNaN(r.Value) {
			value := r.Value
			v.Value = &value
		}
		values = append(values, v)
	}
	c.JSON(http.StatusOK, gin.H{"run": name, "results": values})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", gin.H{
		"Sweep": s.sweep.ID.String(),
		"Runs":  s.statuses(),
	})
}
