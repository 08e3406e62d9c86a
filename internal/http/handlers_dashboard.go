package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tradejournal/internal/core"
)

type dashboardViewModel struct {
	Username string
	Year     int
	Month    int
	Stats    core.DashboardStats
	Entries  []core.DailyEntry
}

// handleDashboard renders the stats header and the selected month's
// entries. Insights are loaded separately through /ui/insights so a slow
// generator never delays the numbers.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	year, month := parseYearMonth(r)

	stats, err := s.ledger.Dashboard(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard stats failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not load dashboard", http.StatusInternalServerError)
		return
	}

	entries, err := s.ledger.MonthlyEntries(r.Context(), user.ID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly entries failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not load dashboard", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "dashboard.html", dashboardViewModel{
		Username: user.Username,
		Year:     year,
		Month:    month,
		Stats:    stats,
		Entries:  entries,
	})
}

// handleInsights returns the AI panels as an HTML fragment for the
// dashboard to swap in.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	year, month := parseYearMonth(r)

	entries, err := s.ledger.MonthlyEntries(r.Context(), user.ID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Insight entries failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not load insights", http.StatusInternalServerError)
		return
	}

	profitReasons, lossReasons := partitionReasons(entries)
	insights, err := s.insights.Generate(r.Context(), profitReasons, lossReasons)
	if err != nil {
		slog.ErrorContext(r.Context(), "Insight generation failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not load insights", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "insights.html", insights)
}

// partitionReasons splits the free-text reasons into profit and loss
// buckets, skipping blanks.
func partitionReasons(entries []core.DailyEntry) (profit, loss []string) {
	for _, e := range entries {
		if e.ReasonProfit != "" {
			profit = append(profit, e.ReasonProfit)
		}
		if e.ReasonLoss != "" {
			loss = append(loss, e.ReasonLoss)
		}
	}
	return profit, loss
}

type balanceAuditResponse struct {
	Materialized string `json:"materialized"`
	Recomputed   string `json:"recomputed"`
	Consistent   bool   `json:"consistent"`
}

// handleBalanceAudit cross-checks the stored balance against a full
// recomputation from history.
func (s *Server) handleBalanceAudit(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	materialized, recomputed, err := s.ledger.VerifyBalance(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance audit failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not audit balance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(balanceAuditResponse{
		Materialized: materialized.String(),
		Recomputed:   recomputed.String(),
		Consistent:   materialized == recomputed,
	})
}
