package http

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"time"

	"cupsreport/internal/core"
	applog "cupsreport/internal/log"
	"cupsreport/internal/services"
	"cupsreport/internal/snapshot"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.readiness))
	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

type productJSON struct {
	Name        string `json:"name"`
	Price       int64  `json:"price,omitempty"`
	PriceMedio  int64  `json:"price_medio,omitempty"`
	PriceGrande int64  `json:"price_grande,omitempty"`
}

type categoryJSON struct {
	Name     string        `json:"name"`
	Kind     core.Kind     `json:"kind"`
	Tiers    []core.Tier   `json:"tiers"`
	Products []productJSON `json:"products"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cats := s.svc.Catalog()
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		cj := categoryJSON{Name: c.Name, Kind: c.Kind, Tiers: core.Tiers(c.Kind)}
		for _, p := range c.Products {
			pj := productJSON{Name: p}
			if c.Kind.HasFixedPrice() {
				pj.Price = c.FixedPrice(p)
			} else {
				pj.PriceMedio, pj.PriceGrande = c.PriceMedio, c.PriceGrande
			}
			cj.Products = append(cj.Products, pj)
		}
		out = append(out, cj)
	}
	NewResponse().JSON(map[string]any{"categories": out}).Write(w)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{"counters": s.svc.Counts()}).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.svc.Totals()).Write(w)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.CategoryTotals(r.PathValue("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(totals).Write(w)
}

type mutation func(ctx context.Context, category, product string, tier core.Tier) (services.CounterUpdate, error)

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.svc.Increment)
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.svc.Decrement)
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, fn mutation) {
	target, err := ParseCounterTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	upd, err := fn(r.Context(), target.Category, target.Product, target.Tier)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(upd).Write(w)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Save(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(res).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.FileName(s.now())+`"`)
	if err := s.svc.Export(w); err != nil {
		// Headers are already out; all that is left is to log.
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Report export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
	}
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	body, name, err := ReportUpload(w, r)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.writeError(w, r, err)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	defer body.Close()

	res, err := s.svc.Load(r.Context(), body, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleCashierPerformance(w http.ResponseWriter, r *http.Request) {
	form, err := ParseCashierForm(w, r)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.writeError(w, r, err)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewResponse().Text(s.svc.CashierPerformance(form.Date, form.Cashier).Text()).Write(w)
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		maxBytes *http.MaxBytesError
		parseErr *csv.ParseError
	)
	switch {
	case errors.As(err, &maxBytes):
		ErrorResponse(http.StatusRequestEntityTooLarge, "report too large").Write(w)
	case errors.Is(err, core.ErrUnknownCategory), errors.Is(err, core.ErrUnknownProduct):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, core.ErrInvalidTier),
		errors.Is(err, snapshot.ErrMissingHeader),
		errors.Is(err, snapshot.ErrEmptyFile),
		errors.As(err, &parseErr):
		BadRequestError(err.Error()).Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}
