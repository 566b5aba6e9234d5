// Package control exposes a running graph to other processes: an HTTP API
// for parameters and lifecycle, and a watcher that applies parameter files.
package control

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/param"
)

// Runtime is the part of raug.Runtime served by the API.
type Runtime interface {
	ID() string
	State() raug.State
	BlocksProcessed() uint64
	Params() *param.Store
	Stop()
	Wait() error
}

// Server serves the control API of a runtime.
type Server struct {
	runtime  Runtime
	gatherer prometheus.Gatherer
	log      raug.Logger
	router   *gin.Engine
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer sets the source of /metrics. Default is the prometheus
// default registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l raug.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// ParamView is the JSON form of a parameter.
type ParamView struct {
	Name   string   `json:"name"`
	Value  float64  `json:"value"`
	Writes uint64   `json:"writes"`
	Bangs  uint64   `json:"bangs"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// StateView is the JSON form of the runtime state.
type StateView struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Blocks uint64 `json:"blocks"`
}

// Update is the body of PUT /params/:name. Either a value is set or the
// parameter is banged.
type Update struct {
	Value *float64 `json:"value"`
	Bang  bool     `json:"bang"`
}

// NewServer returns the control server of r.
func NewServer(r Runtime, opts ...ServerOption) *Server {
	s := &Server{
		runtime:  r,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, option := range opts {
		option(s)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if s.log != nil {
		s.router.Use(s.logRequests)
	}
	s.router.GET("/params", s.listParams)
	s.router.GET("/params/:name", s.getParam)
	s.router.PUT("/params/:name", s.putParam)
	s.router.GET("/state", s.getState)
	s.router.POST("/stop", s.stop)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return s
}

// Handler returns the http handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(c *gin.Context) {
	began := time.Now()
	c.Next()
	s.log.Debug(c.Request.Method, " ", c.Request.URL.Path, " ", c.Writer.Status(), " ", time.Since(began))
}

func view(p *param.Param) ParamView {
	v, writes, bangs := p.Snapshot()
	pv := ParamView{
		Name:   p.Name(),
		Value:  v,
		Writes: writes,
		Bangs:  bangs,
	}
	if lo, hi, ok := p.Range(); ok {
		pv.Min, pv.Max = &lo, &hi
	}
	return pv
}

func (s *Server) listParams(c *gin.Context) {
	store := s.runtime.Params()
	views := make([]ParamView, 0, store.Len())
	for _, name := range store.Names() {
		p, err := store.Named(name)
		if err != nil {
			continue
		}
		views = append(views, view(p))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getParam(c *gin.Context) {
	p, err := s.runtime.Params().Named(c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view(p))
}

func (s *Server) putParam(c *gin.Context) {
	p, err := s.runtime.Params().Named(c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	var u Update
	if err := c.ShouldBindJSON(&u); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch {
	case u.Value != nil:
		if err := p.Set(*u.Value); err != nil {
			abort(c, err)
			return
		}
	case u.Bang:
		p.Bang()
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "value or bang is required"})
		return
	}
	c.JSON(http.StatusOK, view(p))
}

func (s *Server) state() StateView {
	return StateView{
		ID:     s.runtime.ID(),
		State:  stateName(s.runtime.State()),
		Blocks: s.runtime.BlocksProcessed(),
	}
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) stop(c *gin.Context) {
	s.runtime.Stop()
	if err := s.runtime.Wait(); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s.state())
}

func stateName(st raug.State) string {
	return strings.ToLower(strings.TrimPrefix(st.String(), "state."))
}

// abort maps parameter errors to status codes.
func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, param.ErrUnknownParameter):
		status = http.StatusNotFound
	case errors.Is(err, param.ErrOutOfRange), errors.Is(err, param.ErrInvalidValue):
		status = http.StatusUnprocessableEntity
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
