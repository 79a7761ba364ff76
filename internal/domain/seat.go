package domain

type Seat struct {
	ID          int64  `json:"id"`
	FlightID    int64  `json:"flight_id"`
	SeatNumber  string `json:"seat_number"`
	BookingID   *int64 `json:"booking_id"`
	PassengerID *int64 `json:"passenger_id"`
	IsAvailable bool   `json:"is_available"`
}
