// Package aws provides an AWS SNS tap. Dispatch records are published to the
// topic ARN derived from the tap topic, region and account.
package aws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/transport"
)

// TransportName is the tap system value selecting this transport.
const TransportName = "aws"

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// Config is the AWS part of the service configuration. Build fails when the
// transport config does not implement it.
type Config interface {
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

var errAWSConfigRequired = errors.New("aws: configuration does not carry AWS settings")

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// TopicResolverFactory allows overriding the topic resolver creation for testing.
var TopicResolverFactory = sns.NewGenerateArnTopicResolver

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return sns.NewPublisher(cfg, logger)
}

func init() {
	Register()
}

// Register adds the transport to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.AWSCapabilities)
}

// Build creates a publish-only SNS transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	awsSettings, ok := cfg.(Config)
	if !ok {
		return transport.Transport{}, errAWSConfigRequired
	}
	if awsSettings.GetAWSRegion() == "" {
		return transport.Transport{}, fmt.Errorf("%w: aws region is empty", errspkg.ErrPublisherRequired)
	}

	awsCfg, err := loadAWSConfig(ctx, awsSettings)
	if err != nil {
		logger.Error("Failed to load AWS config", err, watermill.LogFields{"region": awsSettings.GetAWSRegion()})
		return transport.Transport{}, err
	}

	accountID := resolveAccountID(awsSettings, logger)
	topicResolver, err := TopicResolverFactory(accountID, awsCfg.Region)
	if err != nil {
		return transport.Transport{}, fmt.Errorf("create SNS topic resolver: %w", err)
	}

	pubCfg := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     awsCfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}
	if endpoint := awsSettings.GetAWSEndpoint(); endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return transport.Transport{}, fmt.Errorf("failed to parse AWS endpoint: %w", err)
		}
		pubCfg.OptFns = []func(*amazonsns.Options){
			amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{URI: *parsed},
			}),
		}
	}

	logger.Info("Creating SNS tap publisher", watermill.LogFields{
		"region":          awsCfg.Region,
		"account_id":      accountID,
		"custom_endpoint": awsSettings.GetAWSEndpoint() != "",
	})

	pub, err := PublisherFactory(pubCfg, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: pub}, nil
}

func Capabilities() transport.Capabilities {
	return transport.AWSCapabilities
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.GetAWSRegion())}
	if key, secret := cfg.GetAWSAccessKeyID(), cfg.GetAWSSecretAccessKey(); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(key, secret)))
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfg.Region = cfg.GetAWSRegion()
	return awsCfg, nil
}

// resolveAccountID falls back to the LocalStack account when a custom
// endpoint is set and the configured id is missing or malformed.
func resolveAccountID(cfg Config, logger watermill.LoggerAdapter) string {
	accountID := strings.Trim(cfg.GetAWSAccountID(), "\"' ")
	if cfg.GetAWSEndpoint() == "" {
		return accountID
	}
	if len(accountID) != awsAccountIDLength {
		logger.Info("Using LocalStack account id", watermill.LogFields{"configured": accountID})
		return localstackAccountID
	}
	return accountID
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
