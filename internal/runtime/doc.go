/*
Package runtime provides the event registry and the two delivery channels of a
webui service.

# Architecture Overview

A Service maps (element id, event type) keys to handlers. Browser code sends
events either over the socket at /ws, where every text frame is one event and
every event gets one reply frame, or as a POST to /api/event, which answers
with the Result as the response body. Both channels resolve handlers through
the same Dispatcher, so a binding behaves identically on either of them.

# Package Structure

## Core Service (service.go)

The Service struct wires together:
  - the handler registry and the Dispatcher
  - the HTTP mux serving /ws, /api/event, /api/handlers, /metrics and static files
  - the Prometheus registry
  - the optional dispatch tap

## Binding (registration*.go)

  - registration.go: BindEvent, BindEventFunc and BindClick
  - registration_json.go: BindJSON decodes the event data into a Go value
  - registration_proto.go: BindProto decodes the event data into a proto message

## Middleware (middleware.go, hooks.go)

Middlewares wrap every bound handler: Recoverer, Tracer, LogEvents and
Metrics by default, plus dispatch hooks for lifecycle callbacks.

## Stats & Monitoring (models.go, resources.go, metrics.go)

Per-binding statistics with latency percentiles, throughput and an error
breakdown, exposed through the introspection API (webui.go).

## Tap (publisher.go)

When configured, every dispatch is mirrored as a DispatchRecord onto a
Watermill publisher built from the transport registry.

# Usage Example

	svc := webui.NewService(webui.DefaultConfig(), logger, webui.ServiceDependencies{})
	svc.BindClick("save-btn", save)
	err := svc.Run(ctx)
*/
package runtime
