package runtime

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

const errUnsupportedContentType = "expected request with Content-Type: application/json"

// handleEvent serves POST /api/event: one Event in, one Result out.
func (s *Service) handleEvent(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r, "POST, OPTIONS")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if !isJSONContentType(r.Header.Get("Content-Type")) {
		s.writeResult(w, http.StatusUnsupportedMediaType, events.Fail(errUnsupportedContentType))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.Conf.MaxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeResult(w, status, events.Fail((&errspkg.DecodeError{Err: err}).Error()))
		return
	}

	ev, err := events.Decode(body)
	if err != nil {
		s.Logger.Debug("Rejected malformed event", loggingpkg.LogFields{
			"channel": string(events.ChannelHTTP),
			"error":   err.Error(),
		})
		s.writeResult(w, http.StatusBadRequest, events.Fail(err.Error()))
		return
	}

	ctx := events.WithOrigin(r.Context(), events.Origin{Channel: events.ChannelHTTP})
	res := s.dispatcher.Dispatch(ctx, ev)
	res.CorrelationToken = nil

	s.writeResult(w, http.StatusOK, res)
}

func (s *Service) writeResult(w http.ResponseWriter, status int, res events.Result) {
	out, err := encodeResult(res)
	if err != nil {
		s.Logger.Error("Failed to encode result", err, nil)
		if out == "" {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

// isJSONContentType accepts application/json and application/*+json.
func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
