package runtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/drblury/webui/internal/runtime/events"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
)

func TestSocketRoundTripKeepsCorrelationToken(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEventFunc("save-btn", "click", func(context.Context, events.Event) (events.Result, error) {
		return events.OK("ok", map[string]any{"n": 1}), nil
	})
	conn := dialSocket(t, startTestServer(t, svc))

	sendFrame(t, conn, `{"element_id":"save-btn","event_type":"click","data":null,"correlation_token":7}`)

	assert.JSONEq(t, `{"succeeded":true,"message":"ok","payload":{"n":1},"correlation_token":7}`, receiveFrame(t, conn))
}

func TestSocketUnboundEventFails(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	conn := dialSocket(t, startTestServer(t, svc))

	sendFrame(t, conn, `{"element_id":"ghost","event_type":"click","data":null,"correlation_token":3}`)

	assert.JSONEq(t, `{"succeeded":false,"message":"no handler for ghost:click","correlation_token":3}`, receiveFrame(t, conn))
}

func TestSocketHandlerCannotOverrideToken(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEvent("x", "click", staticHandler(events.Result{Succeeded: true, CorrelationToken: events.Token(99)}, nil))
	conn := dialSocket(t, startTestServer(t, svc))

	sendFrame(t, conn, `{"element_id":"x","event_type":"click","data":null}`)
	assert.JSONEq(t, `{"succeeded":true}`, receiveFrame(t, conn))

	sendFrame(t, conn, `{"element_id":"x","event_type":"click","data":null,"correlation_token":5}`)
	assert.JSONEq(t, `{"succeeded":true,"correlation_token":5}`, receiveFrame(t, conn))
}

func TestSocketDropsMalformedFrames(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindClick("ok", func() {})
	conn := dialSocket(t, startTestServer(t, svc))

	sendFrame(t, conn, `not json`)
	sendFrame(t, conn, `{"event_type":"click","data":null}`)
	sendFrame(t, conn, `{"element_id":"ok","event_type":"click","data":null,"correlation_token":1}`)

	assert.JSONEq(t, `{"succeeded":true,"correlation_token":1}`, receiveFrame(t, conn))
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.metrics.droppedFrames))
}

func TestSocketDropsOversizedFrames(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxFrameBytes = 128
	svc := newTestService(t, cfg, ServiceDependencies{})
	svc.BindClick("ok", func() {})
	conn := dialSocket(t, startTestServer(t, svc))

	big := `{"element_id":"ok","event_type":"click","data":"` + strings.Repeat("a", 512) + `"}`
	sendFrame(t, conn, big)
	sendFrame(t, conn, `{"element_id":"ok","event_type":"click","data":null,"correlation_token":2}`)

	assert.JSONEq(t, `{"succeeded":true,"correlation_token":2}`, receiveFrame(t, conn))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.droppedFrames))
}

func TestSocketSurvivesHandlerPanic(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEventFunc("bad", "click", func(context.Context, events.Event) (events.Result, error) {
		panic("boom")
	})
	svc.BindClick("good", func() {})
	conn := dialSocket(t, startTestServer(t, svc))

	sendFrame(t, conn, `{"element_id":"bad","event_type":"click","data":null,"correlation_token":1}`)
	assert.JSONEq(t, `{"succeeded":false,"message":"handler panicked: boom","correlation_token":1}`, receiveFrame(t, conn))

	sendFrame(t, conn, `{"element_id":"good","event_type":"click","data":null,"correlation_token":2}`)
	assert.JSONEq(t, `{"succeeded":true,"correlation_token":2}`, receiveFrame(t, conn))
}

func TestSocketRepliesInOrder(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEventFunc("echo", "input", func(_ context.Context, ev events.Event) (events.Result, error) {
		return events.OK("", ev.Data), nil
	})
	conn := dialSocket(t, startTestServer(t, svc))

	for i := 0; i < 5; i++ {
		sendFrame(t, conn, `{"element_id":"echo","event_type":"input","data":"v`+string(rune('0'+i))+`"}`)
	}
	for i := 0; i < 5; i++ {
		assert.JSONEq(t, `{"succeeded":true,"payload":"v`+string(rune('0'+i))+`"}`, receiveFrame(t, conn))
	}
}

func TestSocketTracksConnections(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindClick("ok", func() {})
	srv := startTestServer(t, svc)

	conn := dialSocket(t, srv)
	sendFrame(t, conn, `{"element_id":"ok","event_type":"click","data":null}`)
	receiveFrame(t, conn)

	ids := svc.Connections()
	require.Len(t, ids, 1)
	assert.True(t, strings.HasPrefix(ids[0], "conn_"))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.connections))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return len(svc.Connections()) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(svc.metrics.connections))
}

func TestSocketHandshakeRejectsUnknownOrigin(t *testing.T) {
	cfg := newTestConfig()
	cfg.CORSAllowedOrigins = []string{"http://allowed.example"}
	svc := newTestService(t, cfg, ServiceDependencies{})
	srv := startTestServer(t, svc)

	_, err := websocket.Dial(socketURL(srv), "", "http://evil.example")
	require.Error(t, err)

	conn, err := websocket.Dial(socketURL(srv), "", "http://allowed.example")
	require.NoError(t, err)
	_ = conn.Close()
}

func TestEncodeResultFallsBackOnUnencodablePayload(t *testing.T) {
	res := events.OK("", make(chan int))
	res.CorrelationToken = events.Token(4)

	out, err := encodeResult(res)
	require.Error(t, err)

	var decoded events.Result
	require.NoError(t, jsoncodec.UnmarshalFromString(out, &decoded))
	assert.False(t, decoded.Succeeded)
	assert.True(t, strings.HasPrefix(decoded.Message, "failed to encode result: "))
	require.NotNil(t, decoded.CorrelationToken)
	assert.Equal(t, int64(4), *decoded.CorrelationToken)
}
