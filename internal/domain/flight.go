package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusCompleted FlightStatus = "COMPLETED"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusDelayed, FlightStatusCancelled, FlightStatusCompleted:
		return true
	}
	return false
}

type Flight struct {
	ID            int64        `json:"id"`
	FlightNumber  string       `json:"flight_number"`
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureTime time.Time    `json:"departure_time"`
	ArrivalTime   time.Time    `json:"arrival_time"`
	TotalSeats    int          `json:"total_seats"`
	Status        FlightStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Departed reports whether the flight's departure is before now.
func (f *Flight) Departed(now time.Time) bool {
	return f.DepartureTime.Before(now)
}

// FlightSearch filters are independent; zero values are ignored.
type FlightSearch struct {
	Origin      string
	Destination string
	Date        *time.Time
}
