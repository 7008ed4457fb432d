package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Ticket statuses and priorities. New tickets open at normal priority.
const (
	TicketStatusOpen     = "open"
	TicketPriorityNormal = "normal"
)

// emailPattern is a pragmatic format check, not full RFC 5322.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Ticket is a locally filed support request, created when retrieval
// cannot answer a question with enough confidence.
type Ticket struct {
	// ID is the ticket identifier ("TICKET-" prefix).
	ID string

	// Name is the requester's name.
	Name string

	// Email is the requester's contact address.
	Email string

	// Title is the one-line summary.
	Title string

	// Description is the full request text.
	Description string

	// Status is the ticket lifecycle state.
	Status string

	// Priority is the handling priority.
	Priority string

	// CreatedAt is when the ticket was filed.
	CreatedAt time.Time
}

// Validate reports whether the ticket is well formed for filing.
func (t Ticket) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !ValidEmail(t.Email) {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, t.Email)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	return nil
}

// ValidEmail reports whether the address looks like a deliverable email.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
