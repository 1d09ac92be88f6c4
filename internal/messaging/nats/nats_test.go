package nats

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pueblos-cart/internal/domain/order"
)

type mockStream struct {
	subject string
	payload []byte
	opts    int
	err     error
}

func (m *mockStream) Publish(_ context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	m.subject = subject
	m.payload = payload
	m.opts = len(opts)
	if m.err != nil {
		return nil, m.err
	}
	return &jetstream.PubAck{Stream: StreamName, Sequence: 1}, nil
}

func TestPublisher_PublishOrderPlaced(t *testing.T) {
	js := &mockStream{}
	p := NewPublisher(js)

	o := &order.Order{
		ID:    "b6f5c6a2-0000-4000-8000-000000000001",
		Items: []order.Item{{ProductID: 2, Quantity: 1}},
		Total: decimal.RequireFromString("29.90"),
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), o))

	assert.Equal(t, order.PlacedSubject, js.subject)
	assert.Equal(t, 1, js.opts, "message id is set")
	assert.Contains(t, string(js.payload), `"total":"29.90"`)
}

func TestPublisher_Error(t *testing.T) {
	p := NewPublisher(&mockStream{err: errors.New("no responders")})

	err := p.PublishOrderPlaced(context.Background(), &order.Order{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order x")
}
