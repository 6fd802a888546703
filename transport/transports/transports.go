// Package transports registers every built-in tap transport with the default
// registry. Import it for its side effects.
package transports

import (
	_ "github.com/drblury/webui/transport/aws"
	_ "github.com/drblury/webui/transport/channel"
	_ "github.com/drblury/webui/transport/http"
	_ "github.com/drblury/webui/transport/kafka"
	_ "github.com/drblury/webui/transport/nats"
	_ "github.com/drblury/webui/transport/rabbitmq"
)
