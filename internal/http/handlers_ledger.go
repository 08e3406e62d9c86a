package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tradejournal/internal/core"
)

type eventFormViewModel struct {
	Error  string
	Amount string
	Date   string
}

type dailyEntryViewModel struct {
	Error        string
	Date         string
	Profit       string
	Loss         string
	ReasonProfit string
	ReasonLoss   string
}

func (s *Server) handleDepositForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "deposit.html", eventFormViewModel{})
}

func (s *Server) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleCreateEvent(w, r, "deposit.html", func(ctx context.Context, userID int64, amount core.Money, date core.Date) error {
		_, err := s.ledger.RecordDeposit(ctx, userID, amount, date)
		return err
	})
}

func (s *Server) handleWithdrawForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "withdraw.html", eventFormViewModel{})
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.handleCreateEvent(w, r, "withdraw.html", func(ctx context.Context, userID int64, amount core.Money, date core.Date) error {
		_, err := s.ledger.RecordWithdrawal(ctx, userID, amount, date)
		return err
	})
}

// handleCreateEvent implements the shared deposit/withdrawal form flow:
// parse amount and date, record the event, bounce back to the dashboard.
// Rejected input re-renders the form with the original values preserved.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, tmpl string,
	record func(ctx context.Context, userID int64, amount core.Money, date core.Date) error) {

	user := userFrom(r)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, tmpl, eventFormViewModel{Error: "Invalid form submission."})
		return
	}

	vm := eventFormViewModel{
		Amount: sanitizeInput(r.Form.Get("amount")),
		Date:   sanitizeInput(r.Form.Get("date")),
	}

	amount, err := core.ParseAmount(vm.Amount)
	if err != nil {
		vm.Error = "Amount must be a positive number."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, tmpl, vm)
		return
	}
	date, err := core.ParseDate(vm.Date)
	if err != nil {
		vm.Error = "Date must be in YYYY-MM-DD format."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, tmpl, vm)
		return
	}

	if err := record(r.Context(), user.ID, amount, date); err != nil {
		slog.ErrorContext(r.Context(), "Ledger event failed", "error", err, "user_id", user.ID)
		vm.Error = "Could not save. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, tmpl, vm)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDailyEntryForm(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	vm := dailyEntryViewModel{Profit: "0", Loss: "0"}

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		if date, err := core.ParseDate(dateStr); err == nil {
			vm.Date = date.String()
			if entry, err := s.ledger.EntryByDate(r.Context(), user.ID, date); err == nil {
				vm.Profit = entry.Profit.String()
				vm.Loss = entry.Loss.String()
				vm.ReasonProfit = entry.ReasonProfit
				vm.ReasonLoss = entry.ReasonLoss
			}
		}
	}

	s.render(w, r, "daily_entry.html", vm)
}

func (s *Server) handleCreateDailyEntry(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "daily_entry.html", dailyEntryViewModel{Error: "Invalid form submission."})
		return
	}

	vm := dailyEntryViewModel{
		Date:         sanitizeInput(r.Form.Get("date")),
		Profit:       sanitizeInput(r.Form.Get("profit")),
		Loss:         sanitizeInput(r.Form.Get("loss")),
		ReasonProfit: sanitizeInput(r.Form.Get("reason_profit")),
		ReasonLoss:   sanitizeInput(r.Form.Get("reason_loss")),
	}

	date, err := core.ParseDate(vm.Date)
	if err != nil {
		vm.Error = "Date must be in YYYY-MM-DD format."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "daily_entry.html", vm)
		return
	}
	profit, err := core.ParseNonNegativeAmount(vm.Profit)
	if err != nil {
		vm.Error = "Profit must be a non-negative number."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "daily_entry.html", vm)
		return
	}
	loss, err := core.ParseNonNegativeAmount(vm.Loss)
	if err != nil {
		vm.Error = "Loss must be a non-negative number."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "daily_entry.html", vm)
		return
	}

	_, err = s.ledger.RecordEntry(r.Context(), core.DailyEntry{
		UserID:       user.ID,
		Date:         date,
		Profit:       profit,
		Loss:         loss,
		ReasonProfit: vm.ReasonProfit,
		ReasonLoss:   vm.ReasonLoss,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Daily entry creation failed", "error", err, "user_id", user.ID)
		vm.Error = "Could not save the entry. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "daily_entry.html", vm)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

type updateEntryRequest struct {
	Profit       json.Number `json:"profit"`
	Loss         json.Number `json:"loss"`
	ReasonProfit string      `json:"reason_profit"`
	ReasonLoss   string      `json:"reason_loss"`
}

type entryResponse struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Profit       string `json:"profit"`
	Loss         string `json:"loss"`
	ReasonProfit string `json:"reason_profit,omitempty"`
	ReasonLoss   string `json:"reason_loss,omitempty"`
}

// handleUpdateDailyEntry is the JSON revision endpoint. An entry that
// does not exist, or that belongs to another user, is a plain 404.
func (s *Server) handleUpdateDailyEntry(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	profit, err := core.ParseNonNegativeAmount(req.Profit.String())
	if err != nil {
		http.Error(w, "profit must be a non-negative number", http.StatusUnprocessableEntity)
		return
	}
	loss, err := core.ParseNonNegativeAmount(req.Loss.String())
	if err != nil {
		http.Error(w, "loss must be a non-negative number", http.StatusUnprocessableEntity)
		return
	}

	entry, err := s.ledger.ReviseEntry(r.Context(), entryID, user.ID, profit, loss,
		sanitizeInput(req.ReasonProfit), sanitizeInput(req.ReasonLoss))
	if errors.Is(err, core.ErrNotFound) {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry revision failed", "error", err, "user_id", user.ID, "entry_id", entryID)
		http.Error(w, "could not update entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entryResponse{
		ID:           entry.ID,
		Date:         entry.Date.String(),
		Profit:       entry.Profit.String(),
		Loss:         entry.Loss.String(),
		ReasonProfit: entry.ReasonProfit,
		ReasonLoss:   entry.ReasonLoss,
	})
}

// handleReset wipes the user's entire history after an explicit POST.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if err := s.ledger.Reset(r.Context(), user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Reset failed", "error", err, "user_id", user.ID)
		http.Error(w, "could not reset data", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
