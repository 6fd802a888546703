package runtime

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	configpkg "github.com/drblury/webui/internal/runtime/config"
	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

const testOrigin = "http://localhost/"

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func newTestConfig() *configpkg.Config {
	cfg := configpkg.Default()
	cfg.Port = 0
	cfg.StaticDir = ""
	cfg.ShutdownTimeout = 2 * time.Second
	return &cfg
}

func newTestService(t *testing.T, cfg *configpkg.Config, deps ServiceDependencies) *Service {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig()
	}
	if deps.MetricsRegistry == nil {
		deps.MetricsRegistry = prometheus.NewRegistry()
	}
	svc, err := TryNewService(cfg, newTestLogger(), deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func startTestServer(t *testing.T, svc *Service) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(func() {
		svc.connections.CloseAll()
		srv.Close()
	})
	return srv
}

func socketURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, err := websocket.Dial(socketURL(srv), "", testOrigin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, websocket.Message.Send(conn, frame))
}

func receiveFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame string
	require.NoError(t, websocket.Message.Receive(conn, &frame))
	return frame
}

func staticHandler(res events.Result, err error) events.Handler {
	return events.HandlerFunc(func(context.Context, events.Event) (events.Result, error) {
		return res, err
	})
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	messages []*message.Message
	err      error
	closed   bool
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, msg := range msgs {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, msg)
	}
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) Messages() []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.messages...)
}
