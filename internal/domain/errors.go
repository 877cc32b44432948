package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrSeatAlreadyBooked = errors.New("seat already booked")
	ErrSeatBooked        = errors.New("seat is booked")
	ErrFlightHasTickets  = errors.New("flight has tickets")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrStorage           = errors.New("storage failure")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Messages returns "field msg" strings sorted by field name.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+" "+e.Fields[k])
	}
	return out
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func FlightNotFound(id int64) error {
	return &NotFoundError{Resource: "flight", Key: fmt.Sprint(id)}
}

func SeatNotFound(flightID int64, label string) error {
	return &NotFoundError{Resource: "seat", Key: fmt.Sprintf("%s on flight %d", label, flightID)}
}

func TicketNotFound(id int64) error {
	return &NotFoundError{Resource: "ticket", Key: fmt.Sprint(id)}
}

func CityNotFound(id int64) error {
	return &NotFoundError{Resource: "city", Key: fmt.Sprint(id)}
}

func UserNotFound(email string) error {
	return &NotFoundError{Resource: "user", Key: email}
}

// SeatAlreadyBookedError is returned when a purchase targets a seat that is taken.
type SeatAlreadyBookedError struct {
	FlightID int64
	Label    string
}

func (e *SeatAlreadyBookedError) Error() string {
	return fmt.Sprintf("seat %s on flight %d already booked", e.Label, e.FlightID)
}

func (e *SeatAlreadyBookedError) Is(target error) bool { return target == ErrSeatAlreadyBooked }

// SeatBookedError is returned when a booked seat would have to be removed.
type SeatBookedError struct {
	FlightID int64
	Label    string
}

func (e *SeatBookedError) Error() string {
	return fmt.Sprintf("cannot remove seat %s on flight %d: seat is booked", e.Label, e.FlightID)
}

func (e *SeatBookedError) Is(target error) bool { return target == ErrSeatBooked }

type FlightHasTicketsError struct {
	FlightID int64
	Tickets  int
}

func (e *FlightHasTicketsError) Error() string {
	return fmt.Sprintf("flight %d has %d ticket(s); cancel them first", e.FlightID, e.Tickets)
}

func (e *FlightHasTicketsError) Is(target error) bool { return target == ErrFlightHasTickets }

type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
