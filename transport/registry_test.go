package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
)

type mockConfig struct {
	tapSystem string
}

func (m *mockConfig) GetTapSystem() string        { return m.tapSystem }
func (m *mockConfig) GetKafkaBrokers() []string   { return nil }
func (m *mockConfig) GetRabbitMQURL() string      { return "" }
func (m *mockConfig) GetNATSURL() string          { return "" }
func (m *mockConfig) GetHTTPPublisherURL() string { return "" }

type mockPublisher struct {
	closed int
}

func (m *mockPublisher) Publish(string, ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error {
	m.closed++
	return nil
}

type mockSubscriber struct {
	closed int
	err    error
}

func (m *mockSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (m *mockSubscriber) Close() error {
	m.closed++
	return m.err
}

type mockPubSub struct {
	mockPublisher
}

func (m *mockPubSub) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, nil
}

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()
	pub := &mockPublisher{}
	var gotLogger watermill.LoggerAdapter

	r.Register("Memory", func(_ context.Context, _ Config, logger watermill.LoggerAdapter) (Transport, error) {
		gotLogger = logger
		return Transport{Publisher: pub}, nil
	})

	assert.True(t, r.Has("memory"))
	assert.True(t, r.Has("MEMORY"))

	tr, err := r.Build(context.Background(), &mockConfig{tapSystem: "memory"}, nil)
	require.NoError(t, err)
	assert.Same(t, pub, tr.Publisher)
	assert.Nil(t, tr.Subscriber)
	assert.NotNil(t, gotLogger)
}

func TestRegistryBuildErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("b", nil)
	r.Register("a", nil)

	_, err := r.Build(context.Background(), nil, nil)
	assert.ErrorIs(t, err, errspkg.ErrConfigRequired)

	_, err = r.Build(context.Background(), &mockConfig{tapSystem: "zmq"}, nil)
	require.ErrorIs(t, err, errspkg.ErrUnknownTransport)
	assert.Contains(t, err.Error(), `"zmq"`)
	assert.Contains(t, err.Error(), "[a b]")
}

func TestRegistryBuilderError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("dial failed")
	r.Register("broken", func(context.Context, Config, watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, boom
	})

	_, err := r.Build(context.Background(), &mockConfig{tapSystem: "broken"}, watermill.NopLogger{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistryCapabilities(t *testing.T) {
	r := NewRegistry()
	r.RegisterWithCapabilities("channel", nil, ChannelCapabilities)

	assert.Equal(t, ChannelCapabilities, r.GetCapabilities("Channel"))
	assert.Equal(t, Capabilities{Name: "unknown"}, r.GetCapabilities("unknown"))
	assert.Equal(t, []string{"channel"}, r.Names())
}

func TestDefaultRegistryHelpers(t *testing.T) {
	original := DefaultRegistry
	DefaultRegistry = NewRegistry()
	defer func() { DefaultRegistry = original }()

	Register("plain", func(context.Context, Config, watermill.LoggerAdapter) (Transport, error) {
		return Transport{Publisher: &mockPublisher{}}, nil
	})
	RegisterWithCapabilities("kafka", nil, KafkaCapabilities)

	tr, err := Build(context.Background(), &mockConfig{tapSystem: "plain"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, tr.Publisher)
	assert.True(t, GetCapabilities("kafka").Durable)
}
