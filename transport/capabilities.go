package transport

// Capabilities describes what a tap backend offers. The introspection API
// reports them next to the bindings.
type Capabilities struct {
	Name string `json:"name"`

	// Subscribable means the transport returns a Subscriber so tap records
	// can be consumed in process.
	Subscribable bool `json:"subscribable"`

	// Durable means records survive a restart of this process.
	Durable bool `json:"durable"`

	// SupportsOrdering means records from one publisher arrive in order.
	SupportsOrdering bool `json:"supports_ordering"`

	// MaxMessageSize in bytes, 0 when unknown.
	MaxMessageSize int64 `json:"max_message_size,omitempty"`
}

// Predefined capabilities of the built-in transports.
var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		Subscribable:     true,
		SupportsOrdering: true,
	}

	HTTPCapabilities = Capabilities{
		Name: "http",
	}

	NATSCapabilities = Capabilities{
		Name:           "nats",
		MaxMessageSize: 1 * 1024 * 1024,
	}

	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		Durable:          true,
		SupportsOrdering: true,
		MaxMessageSize:   1 * 1024 * 1024,
	}

	RabbitMQCapabilities = Capabilities{
		Name:    "rabbitmq",
		Durable: true,
	}

	AWSCapabilities = Capabilities{
		Name:           "aws",
		Durable:        true,
		MaxMessageSize: 256 * 1024,
	}
)
