// Package nats publishes order events to NATS JetStream.
package nats

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/xenking/pueblos-cart/internal/domain/order"
)

// StreamName is the JetStream stream order events are stored in.
const StreamName = "PUEBLOS_ORDERS"

// Config holds NATS connection settings. An empty URL disables publishing.
type Config struct {
	URL     string        `default:"" usage:"NATS server URL, empty disables order events"`
	Timeout time.Duration `default:"5s" usage:"NATS dial timeout"`
}

// Connect dials NATS and opens a JetStream context.
func Connect(cfg Config) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(cfg.URL, nats.Timeout(cfg.Timeout), nats.Name("pueblos-cart"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to NATS")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, errors.Wrap(err, "create JetStream context")
	}
	return nc, js, nil
}

// EnsureStream creates or updates the order events stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"pueblos.orders.>"},
	})
	if err != nil {
		return errors.Wrap(err, "ensure order stream")
	}
	return nil
}

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

var _ order.Publisher = (*Publisher)(nil)

// Publisher implements order.Publisher on JetStream. The order ID is used as
// message ID so a retried publish is deduplicated by the server.
type Publisher struct {
	js streamPublisher
}

// NewPublisher returns a Publisher using js.
func NewPublisher(js streamPublisher) *Publisher {
	return &Publisher{js: js}
}

// PublishOrderPlaced implements order.Publisher.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	if _, err := p.js.Publish(ctx, order.PlacedSubject, order.EncodePlaced(o), jetstream.WithMsgID(o.ID)); err != nil {
		return errors.Wrapf(err, "publish order %s", o.ID)
	}
	return nil
}
