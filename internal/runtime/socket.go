package runtime

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/drblury/webui/internal/runtime/events"
	idspkg "github.com/drblury/webui/internal/runtime/ids"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

// connectionSet tracks open socket connections by id.
type connectionSet struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

func newConnectionSet() *connectionSet {
	return &connectionSet{conns: make(map[string]*websocket.Conn)}
}

func (c *connectionSet) add(id string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[id] = conn
}

func (c *connectionSet) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, id)
}

func (c *connectionSet) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

// IDs returns the open connection ids in accept order.
func (c *connectionSet) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.conns))
	for id := range c.conns {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// CloseAll closes every tracked connection. The receive loops notice and
// remove themselves.
func (c *connectionSet) CloseAll() {
	c.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(c.conns))
	for _, conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *Service) socketServer() websocket.Server {
	return websocket.Server{
		Handshake: s.socketHandshake,
		Handler:   s.serveSocket,
	}
}

// socketHandshake applies CORSAllowedOrigins to the upgrade request. An
// empty list accepts any origin, including none.
func (s *Service) socketHandshake(_ *websocket.Config, req *http.Request) error {
	if len(s.Conf.CORSAllowedOrigins) == 0 {
		return nil
	}
	origin := req.Header.Get("Origin")
	if s.allowedCORSOrigin(origin) == "" {
		return fmt.Errorf("origin %q not allowed", origin)
	}
	return nil
}

// serveSocket runs the receive, decode, dispatch, respond loop of one
// connection until the peer goes away or the service shuts down.
func (s *Service) serveSocket(conn *websocket.Conn) {
	conn.MaxPayloadBytes = s.Conf.MaxFrameBytes

	id := idspkg.NewConnectionID()
	log := s.Logger.With(loggingpkg.LogFields{"connection_id": id})

	s.connections.add(id, conn)
	s.metrics.connections.Inc()
	defer func() {
		s.connections.remove(id)
		s.metrics.connections.Dec()
		_ = conn.Close()
		log.Debug("Socket closed", nil)
	}()

	log.Debug("Socket accepted", loggingpkg.LogFields{"remote": conn.Request().RemoteAddr})

	ctx := events.WithOrigin(conn.Request().Context(), events.Origin{
		Channel:      events.ChannelSocket,
		ConnectionID: id,
	})

	for {
		var frame string
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				s.metrics.droppedFrames.Inc()
				log.Debug("Dropped oversized frame", loggingpkg.LogFields{"limit": s.Conf.MaxFrameBytes})
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Debug("Socket receive failed", loggingpkg.LogFields{"error": err.Error()})
			}
			return
		}

		ev, err := events.DecodeString(frame)
		if err != nil {
			s.metrics.droppedFrames.Inc()
			log.Debug("Dropped malformed frame", loggingpkg.LogFields{"error": err.Error()})
			continue
		}

		res := s.dispatcher.Dispatch(ctx, ev)

		out, err := encodeResult(res)
		if err != nil {
			log.Error("Failed to encode result", err, loggingpkg.LogFields{"binding_key": ev.Key().String()})
			if out == "" {
				continue
			}
		}
		if err := websocket.Message.Send(conn, out); err != nil {
			log.Debug("Socket send failed", loggingpkg.LogFields{"error": err.Error()})
		}
	}
}

// encodeResult encodes res. When the payload cannot be encoded it falls back
// to a failure Result with the same correlation token.
func encodeResult(res events.Result) (string, error) {
	out, err := jsoncodec.MarshalToString(res)
	if err == nil {
		return out, nil
	}
	fallback := events.Fail("failed to encode result: " + err.Error())
	fallback.CorrelationToken = res.CorrelationToken
	out, fallbackErr := jsoncodec.MarshalToString(fallback)
	if fallbackErr != nil {
		return "", fallbackErr
	}
	return out, err
}
