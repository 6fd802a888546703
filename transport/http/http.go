// Package http posts every dispatch record to a webhook using
// watermill-http. The record topic is appended to the publisher URL.
package http

import (
	"context"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/transport"
)

const TransportName = "http"

// RequestTimeout bounds one webhook call.
const RequestTimeout = 10 * time.Second

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

func init() {
	Register()
}

func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates a publisher posting to <HTTPPublisherURL>/<topic>.
func Build(_ context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	base := strings.TrimRight(cfg.GetHTTPPublisherURL(), "/")
	if base == "" {
		return transport.Transport{}, errspkg.ErrPublisherRequired
	}

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				return http.DefaultMarshalMessageFunc(base+"/"+topic, msg)
			},
			Client: &nethttp.Client{Timeout: RequestTimeout},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: publisher}, nil
}

func Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}
