// Package loan is the Loan Ledger: book copies, their status machine,
// the renewal rule and the overdue predicate.
package loan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status keeps the single-letter codes used in storage.
type Status string

const (
	Maintenance Status = "m"
	OnLoan      Status = "o"
	Available   Status = "a"
	Reserved    Status = "r"
)

func (s Status) Valid() bool {
	switch s {
	case Maintenance, OnLoan, Available, Reserved:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case Maintenance:
		return "Maintenance"
	case OnLoan:
		return "On loan"
	case Available:
		return "Available"
	case Reserved:
		return "Reserved"
	}
	return string(s)
}

const (
	// MaxRenewalDays bounds both renewal and checkout due dates.
	MaxRenewalDays = 28
	// SuggestedRenewalDays is the pre-filled proposal, not a bound.
	SuggestedRenewalDays = 21
)

// BookInstance is one lendable copy of a Book.
type BookInstance struct {
	ID         uuid.UUID
	BookID     int64
	BookTitle  string
	Imprint    string
	DueBack    *time.Time
	BorrowerID *string
	Status     Status
}

// Today truncates now to a UTC calendar date.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether the due date is set and as_of falls after it.
// Only the calendar date of asOf counts.
func (bi BookInstance) IsOverdue(asOf time.Time) bool {
	return bi.DueBack != nil && Today(asOf).After(Today(*bi.DueBack))
}

// ProposedRenewal is the default due date shown before a renewal is submitted.
func ProposedRenewal(now time.Time) time.Time {
	return Today(now).AddDate(0, 0, SuggestedRenewalDays)
}

type ErrorKind string

const (
	InvalidRenewalDate ErrorKind = "InvalidRenewalDate"
	NotOnLoan          ErrorKind = "NotOnLoan"
	InvalidTransition  ErrorKind = "InvalidTransition"
	BorrowerRequired   ErrorKind = "BorrowerRequired"
	InvalidDueDate     ErrorKind = "InvalidDueDate"
)

type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Field names the request field the error belongs to.
func (e *ValidationError) Field() string {
	switch e.Kind {
	case InvalidRenewalDate, InvalidDueDate:
		return "due_back"
	case BorrowerRequired:
		return "borrower_id"
	}
	return "status"
}

func validationErr(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// checkWindow enforces today <= due <= today+MaxRenewalDays.
func checkWindow(due, now time.Time, kind ErrorKind, what string) error {
	today := Today(now)
	due = Today(due)
	if due.Before(today) {
		return validationErr(kind, "Invalid date - %s in past", what)
	}
	if due.After(today.AddDate(0, 0, MaxRenewalDays)) {
		return validationErr(kind, "Invalid date - %s more than 4 weeks ahead", what)
	}
	return nil
}

func (bi *BookInstance) requireStatus(action string, allowed ...Status) error {
	for _, s := range allowed {
		if bi.Status == s {
			return nil
		}
	}
	return validationErr(InvalidTransition, "cannot %s a copy that is %s", action, bi.Status.Label())
}

func (bi *BookInstance) clearLoan() {
	bi.BorrowerID = nil
	bi.DueBack = nil
}

// Renew moves the due date of an on-loan copy. Nothing else changes.
func (bi *BookInstance) Renew(due, now time.Time) error {
	if bi.Status != OnLoan {
		return validationErr(NotOnLoan, "copy is %s, not on loan", bi.Status.Label())
	}
	if err := checkWindow(due, now, InvalidRenewalDate, "renewal"); err != nil {
		return err
	}
	d := Today(due)
	bi.DueBack = &d
	return nil
}

// MakeAvailable returns a copy from maintenance or cancels a reservation.
func (bi *BookInstance) MakeAvailable() error {
	if err := bi.requireStatus("make available", Maintenance, Reserved); err != nil {
		return err
	}
	bi.Status = Available
	bi.clearLoan()
	return nil
}

// Reserve holds an available copy, optionally for a borrower.
func (bi *BookInstance) Reserve(borrowerID *string) error {
	if err := bi.requireStatus("reserve", Available); err != nil {
		return err
	}
	bi.Status = Reserved
	bi.BorrowerID = borrowerID
	bi.DueBack = nil
	return nil
}

// Checkout lends the copy. Borrower and a due date inside the renewal window are required.
func (bi *BookInstance) Checkout(borrowerID string, due, now time.Time) error {
	if err := bi.requireStatus("check out", Available, Reserved); err != nil {
		return err
	}
	if borrowerID == "" {
		return validationErr(BorrowerRequired, "a borrower is required to check out a copy")
	}
	if err := checkWindow(due, now, InvalidDueDate, "due date"); err != nil {
		return err
	}
	d := Today(due)
	bi.Status = OnLoan
	bi.BorrowerID = &borrowerID
	bi.DueBack = &d
	return nil
}

// Return takes back an on-loan copy and clears its borrower and due date.
func (bi *BookInstance) Return() error {
	if err := bi.requireStatus("return", OnLoan); err != nil {
		return err
	}
	bi.Status = Available
	bi.clearLoan()
	return nil
}

// Withdraw sends the copy to maintenance from any state.
func (bi *BookInstance) Withdraw() error {
	bi.Status = Maintenance
	bi.clearLoan()
	return nil
}
