package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/sirupsen/logrus"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type BookingLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns booking events into notifications for the booking owner.
// Delivery is a structured log line.
type Sender struct {
	users    UserLookup
	bookings BookingLookup
	log      logrus.FieldLogger
}

func NewSender(users UserLookup, bookings BookingLookup, log logrus.FieldLogger) *Sender {
	return &Sender{users: users, bookings: bookings, log: log}
}

// Send skips events with no recipient; lookup failures other than not-found
// are returned so the consumer stops and the message is re-read.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok, err := s.Compose(ctx, event)
	if err != nil || !ok {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"to":        msg.To,
		"subject":   msg.Subject,
		"event":     event.Type,
		"reference": event.Reference,
	}).Info("notification sent")
	return nil
}

func (s *Sender) Compose(ctx context.Context, event kafka.BookingEvent) (Message, bool, error) {
	subject, body, ok := render(event)
	if !ok {
		return Message{}, false, nil
	}

	userID := event.UserID
	if userID == 0 && event.BookingID != 0 {
		booking, err := s.bookings.GetByID(ctx, event.BookingID)
		if err != nil {
			return Message{}, false, skipNotFound(err)
		}
		userID = booking.UserID
	}
	if userID == 0 {
		return Message{}, false, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Message{}, false, skipNotFound(err)
	}
	if user.Email == "" || !user.IsActive {
		return Message{}, false, nil
	}
	return Message{To: user.Email, Subject: subject, Body: body}, true, nil
}

func render(event kafka.BookingEvent) (subject, body string, ok bool) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return "Booking " + event.Reference + " confirmed",
			fmt.Sprintf("Your booking %s for flight %d is confirmed.", event.Reference, event.FlightID), true
	case kafka.EventSeatAssigned:
		return "Seat " + event.SeatNumber + " assigned",
			fmt.Sprintf("Seat %s on flight %d is assigned to booking %s.", event.SeatNumber, event.FlightID, event.Reference), true
	case kafka.EventBookingCancelled:
		return "Booking " + event.Reference + " cancelled",
			fmt.Sprintf("Your booking %s for flight %d was cancelled and its seats released.", event.Reference, event.FlightID), true
	}
	return "", "", false
}

func skipNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
