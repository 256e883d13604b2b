package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes events as JSON to a fanout exchange, using the event
// type as routing key.
type AMQPSink struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	sink := &AMQPSink{conn: conn, exchange: exchange}
	if _, err := sink.channel(); err != nil {
		conn.Close()
		return nil, err
	}
	return sink, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

// channel returns the open channel, reopening it after a broker-side close.
func (s *AMQPSink) channel() (*amqp.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil && !s.ch.IsClosed() {
		return s.ch, nil
	}
	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	s.ch = ch
	return ch, nil
}

func (s *AMQPSink) Publish(ctx context.Context, event Event) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}
	ch, err := s.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, s.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.Timestamp,
		DeliveryMode: amqp.Transient,
		Body:         body,
	})
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	if s.ch != nil {
		s.ch.Close()
	}
	s.mu.Unlock()
	return s.conn.Close()
}

func encodeEvent(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	return body, nil
}
