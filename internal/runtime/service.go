package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	configpkg "github.com/drblury/webui/internal/runtime/config"
	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
	"github.com/drblury/webui/internal/runtime/registry"
	transportpkg "github.com/drblury/webui/transport"
	_ "github.com/drblury/webui/transport/transports"
)

const readHeaderTimeout = 10 * time.Second

// ServiceDependencies holds the optional collaborators of a Service.
type ServiceDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Also drops panic recovery.
	ErrorClassifier           ErrorClassifier

	// MetricsRegistry receives the service collectors. A fresh registry with
	// Go and process collectors is created when nil.
	MetricsRegistry *prometheus.Registry

	// TransportRegistry resolves Conf.TapSystem. Defaults to
	// transport.DefaultRegistry.
	TransportRegistry *transportpkg.Registry

	// TapTransport replaces the transport built from Conf.TapSystem.
	TapTransport *transportpkg.Transport
}

// Service owns the handler registry and serves both event channels.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	registry        *registry.Registry
	dispatcher      *Dispatcher
	metrics         *serviceMetrics
	metricsRegistry *prometheus.Registry
	connections     *connectionSet
	resources       *resourceTracker

	tap             *DispatchTap
	tapTransport    transportpkg.Transport
	tapCapabilities transportpkg.Capabilities

	handler http.Handler

	closeOnce sync.Once
	closeErr  error
}

// NewService constructs a Service and panics when it cannot. Use
// TryNewService to get the error instead.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps ServiceDependencies) *Service {
	s, err := TryNewService(conf, log, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewService constructs a Service. Bind handlers on it before or while
// serving.
func TryNewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps ServiceDependencies) (*Service, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if log == nil {
		log = loggingpkg.Default()
	}

	log.Info("Creating event service", loggingpkg.LogFields{
		"address": conf.Address(),
		"config":  conf.String(),
	})

	reg := deps.MetricsRegistry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics, err := newServiceMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	s := &Service{
		Conf:            conf,
		Logger:          log,
		registry:        registry.New(),
		metrics:         metrics,
		metricsRegistry: reg,
		connections:     newConnectionSet(),
		resources:       newResourceTracker(),
	}
	s.dispatcher = newDispatcher(s.registry, log, metrics, deps.ErrorClassifier)

	if err := s.setupTap(deps); err != nil {
		return nil, err
	}
	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.handler = s.buildMux()
	return s, nil
}

func (s *Service) setupTap(deps ServiceDependencies) error {
	var tr transportpkg.Transport
	switch {
	case deps.TapTransport != nil:
		tr = *deps.TapTransport
		s.tapCapabilities = transportpkg.Capabilities{Name: "custom", Subscribable: tr.Subscriber != nil}
	case s.Conf.TapSystem != "":
		transports := deps.TransportRegistry
		if transports == nil {
			transports = transportpkg.DefaultRegistry
		}
		built, err := transports.Build(context.Background(), s.Conf, loggingpkg.NewWatermillAdapter(s.Logger))
		if err != nil {
			return fmt.Errorf("build %s tap: %w", s.Conf.TapSystem, err)
		}
		tr = built
		s.tapCapabilities = transports.GetCapabilities(s.Conf.TapSystem)
	default:
		return nil
	}

	tap, err := NewDispatchTap(tr.Publisher, s.Conf.TapTopic, s.Logger, s.metrics.tapFailures)
	if err != nil {
		_ = tr.Close()
		return err
	}
	s.tap = tap
	s.tapTransport = tr
	s.dispatcher.tap = tap
	return nil
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("failed to register middleware %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) buildMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.socketServer())
	mux.HandleFunc("/api/event", s.handleEvent)

	if s.Conf.IntrospectionEnabled {
		mux.HandleFunc("/api/handlers", s.handleGetHandlers)
	}
	if s.Conf.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}))
	}

	if info, err := os.Stat(s.Conf.StaticDir); err == nil && info.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(s.Conf.StaticDir)))
	} else if s.Conf.StaticDir != "" {
		s.Logger.Info("Static directory not found, serving API only", loggingpkg.LogFields{"static_dir": s.Conf.StaticDir})
	}
	return mux
}

// Handler returns the HTTP handler serving every route of the service.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Run listens on Conf.Address and serves until ctx is cancelled. A bind
// failure is returned as is.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Conf.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Conf.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down within
// Conf.ShutdownTimeout, closing open sockets and the tap. It returns nil
// after a graceful shutdown.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": ln.Addr().String()})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		closeErr := s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return closeErr
		}
		return errors.Join(err, closeErr)
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down HTTP server", loggingpkg.LogFields{"address": ln.Addr().String()})

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Conf.ShutdownTimeout)
	defer cancel()

	s.connections.CloseAll()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) && shutdownErr == nil {
		shutdownErr = err
	}
	return errors.Join(shutdownErr, s.Close())
}

// Close releases the tap transport. It is safe to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.connections.CloseAll()
		if s.tap != nil {
			s.closeErr = s.tapTransport.Close()
		}
	})
	return s.closeErr
}

// Dispatch runs ev through the registry in process. Without an Origin on ctx
// it is reported on the direct channel.
func (s *Service) Dispatch(ctx context.Context, ev events.Event) events.Result {
	return s.dispatcher.Dispatch(ctx, ev)
}

// TapSubscriber returns the subscriber of the tap transport, or nil when the
// tap is disabled or publish-only.
func (s *Service) TapSubscriber() message.Subscriber {
	return s.tapTransport.Subscriber
}

// TapTopic returns the topic dispatch records are published to, or "" when
// the tap is disabled.
func (s *Service) TapTopic() string {
	if s.tap == nil {
		return ""
	}
	return s.tap.Topic()
}

// Connections returns the ids of the open socket connections.
func (s *Service) Connections() []string {
	return s.connections.IDs()
}

// Bindings lists the bound keys with their stats.
func (s *Service) Bindings() []BindingInfo {
	return s.dispatcher.Bindings()
}

// MetricsRegistry returns the registry holding the service collectors.
func (s *Service) MetricsRegistry() *prometheus.Registry {
	return s.metricsRegistry
}
