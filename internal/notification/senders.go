package notification

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/pkg/resilience"
)

// LogSender writes notifications to the application log.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info("shipper notification",
		zap.String("notification_id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.Int64("shipment_id", n.ShipmentID),
		zap.String("tracking_number", n.TrackingNumber),
		zap.String("shipper_email", n.ShipperEmail),
		zap.String("reason", n.Reason),
	)
	return nil
}

func (s *LogSender) Close() error { return nil }

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSender publishes notifications to a topic exchange, routed by kind.
type AMQPSender struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	mu       sync.Mutex
}

// NewAMQPSender dials the broker and declares the exchange.
func NewAMQPSender(url, exchange string) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSender{conn: conn, channel: ch, exchange: exchange}, nil
}

func (s *AMQPSender) Send(ctx context.Context, n Notification) error {
	body, err := n.encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	// amqp channels are not safe for concurrent publishing
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.PublishWithContext(ctx, s.exchange, string(n.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    n.ID,
		Body:         body,
		Timestamp:    n.CreatedAt,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish notification to %s: %w", s.exchange, err)
	}
	return nil
}

func (s *AMQPSender) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender writes notifications to a topic keyed by shipment id.
type KafkaSender struct {
	writer messageWriter
	topic  string
}

func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSender{writer: writer, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, n Notification) error {
	body, err := n.encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(n.ShipmentID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "id", Value: []byte(n.ID)},
			{Key: "kind", Value: []byte(n.Kind)},
		},
		Time: n.CreatedAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification to topic %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

// BreakerSender stops calling a failing sink until the breaker half-opens.
type BreakerSender struct {
	next    Sender
	breaker *resilience.Breaker
}

func NewBreakerSender(next Sender, breaker *resilience.Breaker) *BreakerSender {
	return &BreakerSender{next: next, breaker: breaker}
}

func (s *BreakerSender) Send(ctx context.Context, n Notification) error {
	return s.breaker.Execute(func() error {
		return s.next.Send(ctx, n)
	})
}

func (s *BreakerSender) Close() error {
	return s.next.Close()
}
