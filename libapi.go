package webui

import (
	"google.golang.org/protobuf/proto"

	runtimepkg "github.com/drblury/webui/internal/runtime"
	configpkg "github.com/drblury/webui/internal/runtime/config"
	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
	idspkg "github.com/drblury/webui/internal/runtime/ids"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
	metadatapkg "github.com/drblury/webui/internal/runtime/metadata"
	"github.com/drblury/webui/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Dispatcher          = runtimepkg.Dispatcher

	Event       = events.Event
	Result      = events.Result
	Key         = events.Key
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	Channel     = events.Channel
	Origin      = events.Origin

	JSONHandler[T any]            = runtimepkg.JSONHandler[T]
	ProtoHandler[T proto.Message] = runtimepkg.ProtoHandler[T]

	HandlerMiddleware      = runtimepkg.HandlerMiddleware
	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	// Dispatch lifecycle hooks
	DispatchContext = runtimepkg.DispatchContext
	DispatchHooks   = runtimepkg.DispatchHooks

	// Introspection
	Introspection  = runtimepkg.Introspection
	BindingInfo    = runtimepkg.BindingInfo
	BindingStats   = runtimepkg.BindingStats
	ResourceUsage  = runtimepkg.ResourceUsage
	PanicError     = runtimepkg.PanicError
	DecodeError    = errspkg.DecodeError
	DispatchRecord = runtimepkg.DispatchRecord
	DispatchTap    = runtimepkg.DispatchTap

	// Error classification
	ErrorClassifier = runtimepkg.ErrorClassifier
	ErrorCategory   = runtimepkg.ErrorCategory

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	ConfigValidationError = errspkg.ConfigValidationError

	// Tap transports
	Transport         = transport.Transport
	TransportBuilder  = transport.Builder
	TransportConfig   = transport.Config
	TransportRegistry = transport.Registry
	Capabilities      = transport.Capabilities
)

var (
	NewService     = runtimepkg.NewService
	TryNewService  = runtimepkg.TryNewService
	DefaultConfig  = configpkg.Default
	ConfigFromEnv  = configpkg.FromEnv
	ConfigFromMap  = configpkg.FromMap
	ValidateConfig = configpkg.ValidateConfig

	NewKey         = events.NewKey
	DecodeEvent    = events.Decode
	OK             = events.OK
	Fail           = events.Fail
	Empty          = events.Empty
	Token          = events.Token
	WithOrigin     = events.WithOrigin
	OriginOf       = events.OriginFromContext
	NewDispatchTap = runtimepkg.NewDispatchTap

	DefaultMiddlewares  = runtimepkg.DefaultMiddlewares
	RecovererMiddleware = runtimepkg.RecovererMiddleware
	TracerMiddleware    = runtimepkg.TracerMiddleware
	LogEventsMiddleware = runtimepkg.LogEventsMiddleware
	MetricsMiddleware   = runtimepkg.MetricsMiddleware
	HooksMiddleware     = runtimepkg.HooksMiddleware
	LoggingHooks        = runtimepkg.LoggingHooks
	AlertingHooks       = runtimepkg.AlertingHooks

	// Tap transports
	DefaultTransportRegistry = transport.DefaultRegistry
	NewTransportRegistry     = transport.NewRegistry
	RegisterTransport        = transport.Register
	BuildTransport           = transport.Build
	GetCapabilities          = transport.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrServiceRequired   = errspkg.ErrServiceRequired
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrEventRequired     = errspkg.ErrEventRequired
	ErrUnknownTransport  = errspkg.ErrUnknownTransport

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	DefaultLogger             = loggingpkg.Default
	NopLogger                 = loggingpkg.Nop

	NewMetadata = metadatapkg.New

	CreateULID      = idspkg.CreateULID
	NewConnectionID = idspkg.NewConnectionID
)

// Channels an event can arrive on.
const (
	ChannelSocket = events.ChannelSocket
	ChannelHTTP   = events.ChannelHTTP
	ChannelDirect = events.ChannelDirect
)

// Error category constants for ErrorClassifier.
const (
	ErrorCategoryNone     = runtimepkg.ErrorCategoryNone
	ErrorCategoryRejected = runtimepkg.ErrorCategoryRejected
	ErrorCategoryHandler  = runtimepkg.ErrorCategoryHandler
	ErrorCategoryPanic    = runtimepkg.ErrorCategoryPanic
	ErrorCategoryCanceled = runtimepkg.ErrorCategoryCanceled
)

// Tap metadata keys.
const (
	MetadataKeyBindingKey       = metadatapkg.KeyBindingKey
	MetadataKeyChannel          = metadatapkg.KeyChannel
	MetadataKeyConnectionID     = metadatapkg.KeyConnectionID
	MetadataKeySucceeded        = metadatapkg.KeySucceeded
	MetadataKeyCorrelationToken = metadatapkg.KeyCorrelationToken
	MetadataKeySchema           = metadatapkg.KeySchema
)

func BindJSON[T any](svc *Service, elementID, eventType string, fn JSONHandler[T]) error {
	return runtimepkg.BindJSON(svc, elementID, eventType, fn)
}

func BindProto[T proto.Message](svc *Service, elementID, eventType string, fn ProtoHandler[T]) error {
	return runtimepkg.BindProto(svc, elementID, eventType, fn)
}

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}
