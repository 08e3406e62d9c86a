package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with day precision. The time component is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	// User is an account identity plus its materialized running balance.
	// ActiveBalance always equals the net effect of every stored deposit,
	// withdrawal and daily entry owned by the user.
	User struct {
		ID            int64
		Email         string
		Username      string
		PasswordHash  string
		ActiveBalance Money
		CreatedAt     time.Time
	}

	// Deposit is an immutable credit event. It increases the owner's
	// balance by Amount at creation time.
	Deposit struct {
		ID        int64
		UserID    int64
		Amount    Money
		Date      Date
		CreatedAt time.Time
	}

	// Withdrawal is an immutable debit event. It decreases the owner's
	// balance by Amount at creation time. Withdrawals may drive the
	// balance negative.
	Withdrawal struct {
		ID        int64
		UserID    int64
		Amount    Money
		Date      Date
		CreatedAt time.Time
	}

	// DailyEntry records one day of trading results. Unlike deposits and
	// withdrawals it may be revised after creation; revisions go through
	// the reconciliation flow so the balance never drifts.
	DailyEntry struct {
		ID           int64
		UserID       int64
		Date         Date
		Profit       Money
		Loss         Money
		ReasonProfit string
		ReasonLoss   string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// DashboardStats aggregates a user's full event history.
	DashboardStats struct {
		ActiveBalance  Money
		TotalDeposited Money
		TotalWithdrawn Money
		TotalProfit    Money
		TotalLoss      Money
		TotalPnl       Money
	}

	// Registration is the validated input for creating a user.
	Registration struct {
		Email    string
		Username string
		Password string
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyEmail    = errors.New("empty email")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyPassword = errors.New("empty password")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in YYYY-MM-DD form, the same format used in storage.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// NetEffect is the entry's contribution to the running balance.
func (e DailyEntry) NetEffect() Money {
	return Money{Cents: e.Profit.Cents - e.Loss.Cents}
}

func (e DailyEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Profit.Cents < 0 || e.Loss.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d Deposit) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if d.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (w Withdrawal) Validate() error {
	if err := w.Date.Validate(); err != nil {
		return err
	}
	if w.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Registration) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Username) == "" {
		return ErrEmptyUsername
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}
