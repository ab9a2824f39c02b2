package events

import (
	"context"
	"time"

	"drivebay/pkg/kafka"
	kafkaconfig "drivebay/pkg/kafka/config"
	"drivebay/pkg/model"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"

	source = "drivebay-api"
)

// BookingEvent is the payload published on every booking lifecycle change.
type BookingEvent struct {
	Type      string              `json:"type"`
	BookingID string              `json:"booking_id"`
	VehicleID string              `json:"vehicle_id"`
	OwnerID   string              `json:"owner_id"`
	RenterID  string              `json:"renter_id"`
	Status    model.BookingStatus `json:"status"`
	At        time.Time           `json:"at"`
}

type Publisher interface {
	PublishBookingEvent(ctx context.Context, evt BookingEvent) error
	Close() error
}

// KafkaPublisher emits booking events keyed by vehicle ID so all events of
// one vehicle stay ordered on a single partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(kafkaconfig.Load(brokers), topic)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, evt BookingEvent) error {
	msg, err := kafka.NewMessage(evt.VehicleID, evt.Type, source, evt)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured and in
// tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }
