package http

import (
	"net/http"
	"sync"
	"time"

	"storefront/admin/internal/clients"
)

const dateLayout = "2006-01-02"

type dashboardResponse struct {
	Overview      *clients.Overview `json:"overview,omitempty"`
	Revenue       *clients.Revenue  `json:"revenue,omitempty"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	OverviewError string            `json:"overviewError,omitempty"`
	RevenueError  string            `json:"revenueError,omitempty"`
}

// revenueWindow defaults to the last 7 days, today included.
func revenueWindow(r *http.Request, now time.Time) (string, string, bool) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if end == "" {
		end = now.Format(dateLayout)
	}
	if start == "" {
		start = now.AddDate(0, 0, -6).Format(dateLayout)
	}
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return "", "", false
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil || to.Before(from) {
		return "", "", false
	}
	return start, end, true
}

// handleDashboard loads the overview and the revenue chart independently;
// one failing leaves the other displayed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	start, end, ok := revenueWindow(r, s.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_date_range")
		return
	}

	var (
		wg                    sync.WaitGroup
		overview              clients.Overview
		revenue               clients.Revenue
		overviewErr, chartErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		overview, overviewErr = s.backend.DashboardOverview(r.Context())
	}()
	go func() {
		defer wg.Done()
		revenue, chartErr = s.backend.RevenueChart(r.Context(), start, end)
	}()
	wg.Wait()

	if overviewErr != nil && chartErr != nil {
		s.backendError(w, r, overviewErr)
		return
	}
	for _, err := range []error{overviewErr, chartErr} {
		if err != nil && isSessionError(err) {
			s.backendError(w, r, err)
			return
		}
	}

	resp := dashboardResponse{StartDate: start, EndDate: end}
	if overviewErr == nil {
		resp.Overview = &overview
	} else {
		resp.OverviewError = clients.MessageOf(overviewErr)
	}
	if chartErr == nil {
		resp.Revenue = &revenue
	} else {
		resp.RevenueError = clients.MessageOf(chartErr)
	}
	writeJSON(w, http.StatusOK, resp)
}
