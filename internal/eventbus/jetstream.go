package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamSubjects maps each JetStream stream to the subjects it captures.
var StreamSubjects = map[string][]string{
	"tier":       {"tier.>"},
	"nomination": {"nomination.>"},
	"member":     {"member.>"},
}

// JetStreamEventBus implements EventBus on NATS JetStream.
type JetStreamEventBus struct {
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	conn       *nc.Conn
	logger     *slog.Logger
}

var _ EventBus = (*JetStreamEventBus)(nil)

// NewJetStreamEventBus connects to NATS, provisions the streams and builds the
// watermill publisher and subscriber. appType names the durable consumers.
func NewJetStreamEventBus(ctx context.Context, natsURL, appType string, logger *slog.Logger) (*JetStreamEventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	options := []nc.Option{
		nc.Name(appType),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("NATS subscription error", slog.String("subject", s.Subject), slog.Any("error", err))
				return
			}
			logger.Error("NATS connection error", slog.Any("error", err))
		}),
	}

	conn, err := nc.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	if err := EnsureStreams(ctx, js, logger); err != nil {
		conn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	jsConfig := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		TrackMsgId:    true,
		DurablePrefix: appType,
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: options,
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              natsURL,
		QueueGroupPrefix: appType,
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      options,
		Unmarshaler:      marshaler,
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill NATS subscriber: %w", err)
	}

	return &JetStreamEventBus{
		publisher:  publisher,
		subscriber: subscriber,
		conn:       conn,
		logger:     logger,
	}, nil
}

// EnsureStreams creates any stream in StreamSubjects that does not exist yet.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	for name, subjects := range StreamSubjects {
		_, err := js.Stream(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, jetstream.ErrStreamNotFound) {
			return fmt.Errorf("failed to check stream %s: %w", name, err)
		}
		if _, err := js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: subjects,
			Storage:  jetstream.FileStorage,
			MaxAge:   7 * 24 * time.Hour,
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}
		logger.Info("Created JetStream stream", slog.String("stream", name))
	}
	return nil
}

func (b *JetStreamEventBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *JetStreamEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Close stops the subscriber, the publisher and the NATS connection.
func (b *JetStreamEventBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	b.conn.Close()
	return errors.Join(errs...)
}
