package runtime

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
	idspkg "github.com/drblury/webui/internal/runtime/ids"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
	metadatapkg "github.com/drblury/webui/internal/runtime/metadata"
)

// DispatchRecordSchema is written to the schema header of every tap message.
const DispatchRecordSchema = "webui.DispatchRecord"

// DispatchRecord mirrors one dispatch onto the tap topic.
type DispatchRecord struct {
	Channel      events.Channel `json:"channel"`
	ConnectionID string         `json:"connection_id,omitempty"`
	Key          string         `json:"key"`
	Event        events.Event   `json:"event"`
	Result       events.Result  `json:"result"`
	DurationNs   int64          `json:"duration_ns"`
	DispatchedAt time.Time      `json:"dispatched_at"`
}

// NewMessageFromRecord encodes rec as a Watermill message with a ULID uuid
// and the binding headers.
func NewMessageFromRecord(rec DispatchRecord) (*message.Message, error) {
	payload, err := jsoncodec.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dispatch record: %w", err)
	}

	md := metadatapkg.New(
		metadatapkg.KeyBindingKey, rec.Key,
		metadatapkg.KeyChannel, string(rec.Channel),
		metadatapkg.KeySucceeded, strconv.FormatBool(rec.Result.Succeeded),
		metadatapkg.KeySchema, DispatchRecordSchema,
	).With(metadatapkg.KeyConnectionID, rec.ConnectionID)
	if token := rec.Event.CorrelationToken; token != nil {
		md = md.With(metadatapkg.KeyCorrelationToken, strconv.FormatInt(*token, 10))
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata = metadatapkg.ToWatermill(md)
	return msg, nil
}

// DispatchTap publishes a DispatchRecord per dispatch. Publishing is at most
// once: failures are logged and counted, never retried.
type DispatchTap struct {
	publisher message.Publisher
	topic     string
	logger    loggingpkg.ServiceLogger
	failures  prometheus.Counter
}

// NewDispatchTap validates its collaborators. failures may be nil.
func NewDispatchTap(publisher message.Publisher, topic string, logger loggingpkg.ServiceLogger, failures prometheus.Counter) (*DispatchTap, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	return &DispatchTap{publisher: publisher, topic: topic, logger: logger, failures: failures}, nil
}

// Publish sends rec to the tap topic.
func (t *DispatchTap) Publish(ctx context.Context, rec DispatchRecord) error {
	msg, err := NewMessageFromRecord(rec)
	if err != nil {
		return err
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}
	return t.publisher.Publish(t.topic, msg)
}

// Record publishes rec and swallows the error.
func (t *DispatchTap) Record(ctx context.Context, rec DispatchRecord) {
	if err := t.Publish(ctx, rec); err != nil {
		if t.failures != nil {
			t.failures.Inc()
		}
		t.logger.Error("Failed to publish dispatch record", err, loggingpkg.LogFields{
			"binding_key": rec.Key,
			"topic":       t.topic,
		})
	}
}

func (t *DispatchTap) Topic() string {
	return t.topic
}
