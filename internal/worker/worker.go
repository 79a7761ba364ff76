// Package worker holds the background jobs run by cmd/worker.
package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/juju/clock"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type FlightCompleter interface {
	CompleteArrivedFlights(ctx context.Context) ([]int64, error)
}

// CompletionSweep marks arrived flights as completed every interval until ctx
// is done. A failed sweep is logged and retried on the next tick.
func CompletionSweep(ctx context.Context, svc FlightCompleter, clk clock.Clock, interval time.Duration, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(interval):
		}

		completed, err := svc.CompleteArrivedFlights(ctx)
		if err != nil {
			log.WithError(err).Error("flight completion sweep failed")
			continue
		}
		if len(completed) > 0 {
			log.WithField("flights", completed).Info("flights completed")
		}
	}
}

type Notifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// NotificationHandler decodes booking events and hands them to n. Messages
// that cannot be decoded are logged and skipped.
func NotificationHandler(n Notifier, log logrus.FieldLogger) func(context.Context, kafkago.Message) error {
	return func(ctx context.Context, msg kafkago.Message) error {
		event, err := kafka.DecodeEvent(msg)
		if err != nil {
			log.WithFields(logrus.Fields{
				"topic":  msg.Topic,
				"offset": msg.Offset,
			}).WithError(err).Warn("skipping undecodable event")
			return nil
		}
		return n.Send(ctx, event)
	}
}
