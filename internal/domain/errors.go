package domain

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors below wrap exactly one of them, so callers
// can match either the concrete error or its category with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrState        = errors.New("invalid state")
	ErrDuplicate    = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrFlightNotFound    = fmt.Errorf("flight %w", ErrNotFound)
	ErrSeatNotFound      = fmt.Errorf("seat %w", ErrNotFound)
	ErrBookingNotFound   = fmt.Errorf("booking %w", ErrNotFound)
	ErrPassengerNotFound = fmt.Errorf("passenger %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)

	ErrDepartureInPast        = fmt.Errorf("%w: departure time cannot be in the past", ErrValidation)
	ErrArrivalBeforeDeparture = fmt.Errorf("%w: arrival time must be after departure time", ErrValidation)
	ErrNegativeSeatCount      = fmt.Errorf("%w: total seats cannot be negative", ErrValidation)
	ErrInvalidFlightStatus    = fmt.Errorf("%w: unknown flight status", ErrValidation)
	ErrSeatFlightMismatch     = fmt.Errorf("%w: seat does not belong to this flight", ErrValidation)
	ErrInvalidRole            = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrFullNameRequired       = fmt.Errorf("%w: full name is required", ErrValidation)
	ErrUsernameRequired       = fmt.Errorf("%w: username is required", ErrValidation)
	ErrPasswordRequired       = fmt.Errorf("%w: password is required", ErrValidation)

	ErrFlightDeparted        = fmt.Errorf("%w: cannot modify flight after departure", ErrState)
	ErrFlightCancelled       = fmt.Errorf("%w: cannot book cancelled flight", ErrState)
	ErrBookingAfterDeparture = fmt.Errorf("%w: cannot book flight after departure", ErrState)
	ErrNoAvailableSeats      = fmt.Errorf("%w: no available seats", ErrState)
	ErrInvalidBooking        = fmt.Errorf("%w: invalid or cancelled booking", ErrState)
	ErrSeatUnavailable       = fmt.Errorf("%w: seat is not available", ErrState)

	ErrUsernameTaken = fmt.Errorf("username %w", ErrDuplicate)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
)
