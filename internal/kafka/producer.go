package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	EventBookingCreated   = "booking_created"
	EventSeatAssigned     = "seat_assigned"
	EventBookingCancelled = "booking_cancelled"
	EventBookingDeleted   = "booking_deleted"
	EventFlightCancelled  = "flight_cancelled"
	EventFlightCompleted  = "flight_completed"
)

type BookingEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Reference   string    `json:"booking_reference,omitempty"`
	BookingID   int64     `json:"booking_id,omitempty"`
	FlightID    int64     `json:"flight_id"`
	UserID      int64     `json:"user_id,omitempty"`
	SeatID      int64     `json:"seat_id,omitempty"`
	SeatNumber  string    `json:"seat_number,omitempty"`
	PassengerID int64     `json:"passenger_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Key groups events of one booking on one partition; flight-level events
// fall back to the flight id.
func (e BookingEvent) Key() string {
	if e.Reference != "" {
		return e.Reference
	}
	return "flight-" + strconv.FormatInt(e.FlightID, 10)
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     logrus.FieldLogger
}

func NewProducer(brokers []string, log logrus.FieldLogger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		log:     log,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.log.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("published to Kafka")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no Kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.log.WithField("partitions", len(partitions)).Info("connected to Kafka")
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// EventPublisher sends every event to the booking events topic and, when
// configured, mirrors it to the notifications topic.
type EventPublisher struct {
	publisher          Publisher
	eventsTopic        string
	notificationsTopic string
}

func NewEventPublisher(publisher Publisher, eventsTopic, notificationsTopic string) *EventPublisher {
	return &EventPublisher{
		publisher:          publisher,
		eventsTopic:        eventsTopic,
		notificationsTopic: notificationsTopic,
	}
}

func (p *EventPublisher) PublishEvent(ctx context.Context, event BookingEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if p.eventsTopic != "" {
		if err := p.publisher.Publish(ctx, p.eventsTopic, event.Key(), event); err != nil {
			return err
		}
	}
	if p.notificationsTopic != "" {
		return p.publisher.Publish(ctx, p.notificationsTopic, event.Key(), event)
	}
	return nil
}
