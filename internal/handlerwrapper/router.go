package handlerwrapper

import (
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Register adds a handler to router that consumes topic and publishes every
// produced message to the topic named in its metadata.
func Register(
	router *message.Router,
	handlerName string,
	topic string,
	subscriber message.Subscriber,
	publisher message.Publisher,
	logger *slog.Logger,
	handler message.HandlerFunc,
) {
	router.AddHandler(
		handlerName,
		topic,
		subscriber,
		"",
		nil,
		func(msg *message.Message) ([]*message.Message, error) {
			messages, err := handler(msg)
			if err != nil {
				return nil, err
			}
			for _, m := range messages {
				publishTopic := m.Metadata.Get(MetadataTopic)
				if publishTopic == "" {
					logger.Error("Dropping message without topic",
						attr.String("handler", handlerName),
						attr.String("msg_uuid", m.UUID),
					)
					continue
				}
				if err := publisher.Publish(publishTopic, m); err != nil {
					return nil, fmt.Errorf("failed to publish to %s: %w", publishTopic, err)
				}
			}
			return nil, nil
		},
	)
}
