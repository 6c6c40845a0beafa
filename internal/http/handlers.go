package http

import (
	"encoding/json"
	"net/http"

	"txdash/internal/core"
	applog "txdash/internal/log"
)

// chartLabel is the dataset label shown in the chart legend.
const chartLabel = "Total Transaction Amount"

type pageData struct {
	Loading   bool
	Filter    core.Filter
	Cards     []cardView
	Customers []customerOption
	Chart     chartData
	ShowChart bool
	Matched   int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.snaps.Loading() {
		s.render(w, r, "index.html", pageData{Loading: true})
		return
	}

	f := filterFromRequest(r)
	snap := s.snaps.Snapshot()
	d := s.dashboard(r, snap, f)
	s.render(w, r, "index.html", pageData{
		Filter:    f,
		Cards:     cardsFrom(d.Groups),
		Customers: customerOptions(d.Customers, f.SelectedCustomer),
		Chart:     chartFrom(d.Series),
		ShowChart: d.HasSelection,
		Matched:   d.Matched,
	})
}

// handleCustomerCards renders the grouped cards partial for htmx swaps.
func (s *Server) handleCustomerCards(w http.ResponseWriter, r *http.Request) {
	if s.snaps.Loading() {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<div id="customer-cards" class="customer-cards">Loading...</div>`))
		return
	}
	f := filterFromRequest(r)
	f.SelectedCustomer = ""
	d := s.dashboard(r, s.snaps.Snapshot(), f)
	s.render(w, r, "customer_cards.html", pageData{Cards: cardsFrom(d.Groups), Matched: d.Matched})
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers := s.snaps.Snapshot().Customers
	if customers == nil {
		customers = []core.Customer{}
	}
	writeJSON(w, r, http.StatusOK, customers)
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	f := core.Filter{SelectedCustomer: r.URL.Query().Get("customer_id")}
	d := s.dashboard(r, s.snaps.Snapshot(), f)
	writeJSON(w, r, http.StatusOK, chartFrom(d.Series))
}

// dashboard returns the cached view for the snapshot and filter, building
// it on a miss.
func (s *Server) dashboard(r *http.Request, snap core.Snapshot, f core.Filter) core.Dashboard {
	key := viewCacheKey(snap.Version, f)
	return s.viewCache.GetOrCompute(key, func() core.Dashboard {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentCache).DebugContext(r.Context(),
			"View cache miss", applog.FieldVersion, snap.Version, applog.FieldCacheKey, key)
		return core.BuildDashboard(snap, f)
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Encode JSON response", applog.FieldError, err)
	}
}
