// Package nats mirrors dispatch records to a NATS Core subject.
package nats

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/transport"
)

const TransportName = "nats"

// ConnectionName is reported to the NATS server.
const ConnectionName = "webui-tap"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

func init() {
	Register()
}

func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Build creates a core NATS publisher with JetStream disabled.
func Build(_ context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	url := cfg.GetNATSURL()
	if url == "" {
		return transport.Transport{}, errspkg.ErrPublisherRequired
	}

	publisher, err := PublisherFactory(
		nats.PublisherConfig{
			URL:         url,
			NatsOptions: []natsgo.Option{natsgo.Name(ConnectionName)},
			Marshaler:   &nats.NATSMarshaler{},
			JetStream:   nats.JetStreamConfig{Disabled: true},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: publisher}, nil
}

func Capabilities() transport.Capabilities {
	return transport.NATSCapabilities
}
