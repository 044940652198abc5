package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/rgehrsitz/ratebook/internal/logging"
	"github.com/rgehrsitz/ratebook/internal/output"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Server) handleBracket(w http.ResponseWriter, r *http.Request) {
	route, ok := s.familyFromPath(w, r)
	if !ok {
		return
	}
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}
	salary := parseSalary(r.URL.Query().Get("salary"))

	result, err := route.calculator.Resolve(r.Context(), asOf, salary)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.BreakdownDocument(route.family, result))
}

func (s *Server) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	route, ok := s.familyFromPath(w, r)
	if !ok {
		return
	}
	dates, err := route.calculator.SelectableDates(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("type")
	if name == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	route, ok := s.lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %q", domain.ErrUnknownFamily, name))
		return
	}
	asOf, ok := s.asOf(w, r)
	if !ok {
		return
	}

	table, err := route.calculator.Table(r.Context(), asOf)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTableDocument(table))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"families": s.Families(),
	})
}

func (s *Server) familyFromPath(w http.ResponseWriter, r *http.Request) (familyRoute, bool) {
	name := r.PathValue("family")
	route, ok := s.lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %q", domain.ErrUnknownFamily, name))
	}
	return route, ok
}

// asOf reads the date query parameter. A missing date means today in UTC.
func (s *Server) asOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return s.now().UTC(), true
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return d.Time, true
}

// parseSalary never rejects input: anything unparseable, and anything
// negative, is treated as zero
func parseSalary(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	logging.L(r.Context(), s.logger).Error("Rule-set resolution failed", zap.Error(err))
	if errors.Is(err, domain.ErrUnknownFamily) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
