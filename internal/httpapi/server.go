// Package httpapi exposes rule families over HTTP: bracket lookups, date
// pickers and labelled rule tables.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/rgehrsitz/ratebook/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator resolves one rule family. *calculation.Engine implements it.
type Calculator interface {
	Resolve(ctx context.Context, asOf time.Time, value decimal.Decimal) (*domain.BreakdownResult, error)
	SelectableDates(ctx context.Context) ([]domain.SelectableDate, error)
	Table(ctx context.Context, asOf time.Time) (*domain.RuleTable, error)
}

// Options configures a Server. Zero values are usable.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Recorder
	// Gatherer backs /metrics; nil leaves the route unregistered
	Gatherer prometheus.Gatherer
	// Now supplies the as-of date when a request omits it
	Now func() time.Time
}

type familyRoute struct {
	family     domain.RuleFamily
	calculator Calculator
}

// Server routes requests to the registered calculators. Register every
// family before serving; the family table is read-only afterwards.
type Server struct {
	families map[string]familyRoute
	logger   *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
	mux      *http.ServeMux
}

// NewServer creates a server with no families registered
func NewServer(opts Options) *Server {
	s := &Server{
		families: make(map[string]familyRoute),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
		mux:      http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.handle("GET /{family}/bracket", http.HandlerFunc(s.handleBracket))
	s.handle("GET /{family}/select-date", http.HandlerFunc(s.handleSelectDate))
	s.handle("GET /table", http.HandlerFunc(s.handleTable))
	s.handle("GET /healthz", http.HandlerFunc(s.handleHealth))
	if opts.Gatherer != nil {
		s.handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}
	return s
}

// Register binds a family to its calculator
func (s *Server) Register(family domain.RuleFamily, calc Calculator) {
	s.families[strings.ToLower(family.Name)] = familyRoute{family: family, calculator: calc}
}

// Families returns the registered family names in sorted order
func (s *Server) Families() []string {
	names := make([]string, 0, len(s.families))
	for name := range s.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handle registers h under a method pattern; the route label drops the method
func (s *Server) handle(pattern string, h http.Handler) {
	route := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		route = pattern[i+1:]
	}
	s.mux.Handle(pattern, s.instrument(route, h))
}

func (s *Server) lookup(name string) (familyRoute, bool) {
	route, ok := s.families[strings.ToLower(name)]
	return route, ok
}

// Serve runs srv until ctx is done, then shuts it down gracefully within
// shutdownTimeout
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	return <-errCh
}
