// Package transport defines the publishers the dispatch tap can mirror events
// to. Each backend lives in its own sub-package and registers a Builder.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport is what a Builder produces. Subscriber is nil for backends the
// tap only publishes to.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config exposes the settings transports read, without depending on the
// config package.
type Config interface {
	GetTapSystem() string
	GetKafkaBrokers() []string
	GetRabbitMQURL() string
	GetNATSURL() string
	GetHTTPPublisherURL() string
}

// Close releases both halves of t.
func (t Transport) Close() error {
	var err error
	if t.Publisher != nil {
		err = t.Publisher.Close()
	}
	if t.Subscriber != nil && any(t.Subscriber) != any(t.Publisher) {
		if subErr := t.Subscriber.Close(); err == nil {
			err = subErr
		}
	}
	return err
}
