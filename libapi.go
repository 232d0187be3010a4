package pulsarflow

import (
	"context"

	adminpkg "github.com/drblury/pulsarflow/internal/admin"
	consumerpkg "github.com/drblury/pulsarflow/internal/consumer"
	envelopepkg "github.com/drblury/pulsarflow/internal/envelope"
	inrouterpkg "github.com/drblury/pulsarflow/internal/inrouter"
	orchestrationpkg "github.com/drblury/pulsarflow/internal/orchestration"
	localpkg "github.com/drblury/pulsarflow/internal/orchestration/local"
	producerpkg "github.com/drblury/pulsarflow/internal/producer"
	runtimepkg "github.com/drblury/pulsarflow/internal/runtime"
	configpkg "github.com/drblury/pulsarflow/internal/runtime/config"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	idspkg "github.com/drblury/pulsarflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/pulsarflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/pulsarflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/pulsarflow/internal/runtime/metadata"
	transportpkg "github.com/drblury/pulsarflow/internal/runtime/transport"
	newtransport "github.com/drblury/pulsarflow/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory
	Metrics             = runtimepkg.Metrics

	MessageHandlerRegistration = runtimepkg.MessageHandlerRegistration
	MiddlewareBuilder          = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration     = runtimepkg.MiddlewareRegistration
	RetryMiddlewareConfig      = runtimepkg.RetryMiddlewareConfig
	HandlerInfo                = runtimepkg.HandlerInfo

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	UnprocessableMessageError = runtimepkg.UnprocessableMessageError
	ConfigValidationError     = errspkg.ConfigValidationError

	// Demo processes
	Envelope       = envelopepkg.Envelope
	Producer       = producerpkg.Producer
	ProducerConfig = producerpkg.Config
	Consumer       = consumerpkg.Consumer
	ConsumerConfig = consumerpkg.Config
	InboundRouter  = inrouterpkg.Router
	RouterConfig   = inrouterpkg.Config

	// Broker administration
	Admin        = adminpkg.Admin
	PulsarAdmin  = adminpkg.PulsarAdmin
	MemoryAdmin  = adminpkg.MemoryAdmin
	FunctionSpec = adminpkg.FunctionSpec
	Provisioner  = adminpkg.Provisioner
	TopicName    = adminpkg.TopicName

	// Orchestration
	Orchestrator        = orchestrationpkg.Orchestrator
	OrchestrationConfig = orchestrationpkg.Config
	Environment         = orchestrationpkg.Environment
	LocalOptions        = localpkg.Options

	// Modular transport types
	TransportBuilder      = newtransport.Builder
	TransportConfig       = newtransport.Config
	TransportRegistry     = newtransport.Registry
	TransportCapabilities = newtransport.Capabilities
)

var (
	NewService     = runtimepkg.NewService
	LoadConfig     = configpkg.Load
	ValidateConfig = configpkg.ValidateConfig

	RegisterMessageHandler = runtimepkg.RegisterMessageHandler
	Publish                = runtimepkg.Publish
	NewMessage             = runtimepkg.NewMessage

	DefaultMiddlewares           = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware      = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware        = runtimepkg.LogMessagesMiddleware
	TracerMiddleware             = runtimepkg.TracerMiddleware
	MetricsMiddleware            = runtimepkg.MetricsMiddleware
	RetryMiddleware              = runtimepkg.RetryMiddleware
	ConfiguredRetryMiddleware    = runtimepkg.ConfiguredRetryMiddleware
	PoisonQueueMiddleware        = runtimepkg.PoisonQueueMiddleware
	RecovererMiddleware          = runtimepkg.RecovererMiddleware
	NewUnprocessableMessageError = runtimepkg.NewUnprocessableMessageError
	IsUnprocessable              = runtimepkg.IsUnprocessable

	NewProducer      = producerpkg.New
	NewConsumer      = consumerpkg.New
	NewInboundRouter = inrouterpkg.New
	NewEnvelope      = envelopepkg.New
	MarshalEnvelope  = envelopepkg.Marshal

	// NewEnvelopeFromPayload decodes a wire payload.
	NewEnvelopeFromPayload = envelopepkg.Unmarshal

	NewPulsarAdmin        = adminpkg.NewPulsarAdmin
	NewMemoryAdmin        = adminpkg.NewMemoryAdmin
	NewProvisioner        = adminpkg.NewProvisioner
	CustomerOutboundTopic = adminpkg.CustomerOutboundTopic
	ParseTopic            = adminpkg.ParseTopic

	NewOrchestrator = orchestrationpkg.New

	// Modular transport registry.
	// Import individual transports via: _ "github.com/drblury/pulsarflow/transport/pulsar"
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build
	GetCapabilities          = newtransport.GetCapabilities

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	ErrServiceRequired      = errspkg.ErrServiceRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrConsumeQueueRequired = errspkg.ErrConsumeQueueRequired
	ErrHandlerNameRequired  = errspkg.ErrHandlerNameRequired
	ErrPublisherRequired    = errspkg.ErrPublisherRequired
	ErrSubscriberRequired   = errspkg.ErrSubscriberRequired
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrPayloadRequired      = errspkg.ErrPayloadRequired
	ErrSubscriptionClosed   = errspkg.ErrSubscriptionClosed
	ErrAdminClosed          = adminpkg.ErrAdminClosed
	ErrInvalidTransition    = orchestrationpkg.ErrInvalidTransition
	ErrDependentsRunning    = orchestrationpkg.ErrDependentsRunning

	NewLogger            = loggingpkg.New
	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID
)

// Well-known names.
const (
	InboundTopic          = adminpkg.InboundTopic
	MetadataKeyCustomer   = metadatapkg.KeyCustomer
	MetadataKeyProducerID = metadatapkg.KeyProducerID
	MetadataKeySentAt     = metadatapkg.KeySentAt
	ConsumerStarted       = consumerpkg.StartedMessage
)

// RunLocal runs the whole customer scenario in this process over the channel
// transport and returns once everything has been torn down.
func RunLocal(ctx context.Context, opts LocalOptions, logger ServiceLogger) error {
	s, err := localpkg.NewScenario(opts)
	if err != nil {
		return err
	}
	o, err := orchestrationpkg.New(s.Config, logger)
	if err != nil {
		return err
	}
	return o.Run(ctx)
}
