// Package webui lets a Go program drive a browser user interface through
// events. UI elements emit events identified by an element id and an event
// type; the program binds handlers to those pairs, and each handler answers
// with a Result that is sent back to the page.
//
// A Service serves the page from Config.StaticDir and accepts events on two
// channels. The socket at /ws is a long-lived connection where every text
// frame carries one event and receives one reply frame, echoing the event's
// correlation token so the page can match replies to requests. POST
// /api/event handles one event per request and answers with the Result as
// the response body. Both channels share one registry: binding "save-btn" to
// "click" once makes it reachable from either.
//
// Handlers are bound with Service.BindEvent, Service.BindClick, or the typed
// helpers BindJSON and BindProto that decode the event data first. Bindings
// may change while the service runs; the last binding for a pair wins.
//
// # Middleware
//
// The default middleware chain recovers handler panics, traces each handler
// with OpenTelemetry, logs dispatched events and, when Config.MetricsEnabled
// is set, records handler latency in Prometheus. HooksMiddleware adds
// OnDispatchStart, OnDispatchDone and OnDispatchError callbacks.
//
// # Tap
//
// Setting Config.TapSystem mirrors every dispatch as a DispatchRecord to a
// Watermill publisher:
//   - channel: in-process Go channel, subscribable through Service.TapSubscriber
//   - http: POST to an HTTP endpoint
//   - nats: NATS core subjects
//   - kafka: Kafka topic
//   - rabbitmq: durable AMQP queue
//
// Configuration is read from WEBUI_ prefixed environment variables by
// ConfigFromEnv; DefaultConfig returns the same defaults without the
// environment.
package webui
