// Package bootstrap constructs the fully wired routing core from
// configuration. Every collaborator is built and connected here, before any
// request handling begins; nothing initializes itself lazily on a request
// path.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/brightbuddy-ai/platform/cmd/mainconfig"
	"github.com/brightbuddy-ai/platform/internal/agents"
	appconfig "github.com/brightbuddy-ai/platform/internal/config"
	"github.com/brightbuddy-ai/platform/internal/intent"
	"github.com/brightbuddy-ai/platform/internal/notify"
	"github.com/brightbuddy-ai/platform/internal/observability/metrics"
	"github.com/brightbuddy-ai/platform/internal/review"
	approuter "github.com/brightbuddy-ai/platform/internal/router"
	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// Core is the wired routing stack shared by the API server and the Lambda
// entry point.
type Core struct {
	Config  *appconfig.Config
	Logger  *logging.Logger
	Metrics *metrics.RouterMetrics
	Safety  *safety.Service
	Router  *approuter.Router
	Handler *approuter.Handler
}

// BuildCore wires classifier, breakers, dispatcher, safety service and the
// action handler from configuration.
func BuildCore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, false)
	if redisClient == nil {
		return nil, fmt.Errorf("bootstrap: redis is required (REDIS_ADDR)")
	}
	// Constructors panic on missing collaborators; config gaps surface as
	// errors here instead.
	if strings.TrimSpace(cfg.IncidentsTable) == "" {
		return nil, fmt.Errorf("bootstrap: incidents table is required (SAFETY_INCIDENTS_TABLE)")
	}
	if strings.TrimSpace(cfg.IncidentsByUserIndex) == "" {
		return nil, fmt.Errorf("bootstrap: incidents user index is required (SAFETY_INCIDENTS_USER_INDEX)")
	}

	m := metrics.NewRouterMetrics(reg)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	store := safety.NewStore(dynamoClient, cfg.IncidentsTable, cfg.IncidentsByUserIndex, logger)
	cache := safety.NewCache(redisClient, logger, cfg.DegradedScanLimit)

	var archiver *safety.Archiver
	if cfg.ArchiveBucket != "" {
		archiver = safety.NewArchiver(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)
	}

	var alerts safety.AlertPublisher
	if cfg.ReviewQueueURL != "" {
		alerts = review.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.ReviewQueueURL, logger)
	} else {
		logger.Warn("moderation alerts disabled (REVIEW_QUEUE_URL not set)")
	}

	safetySvc := safety.NewService(safety.Deps{
		Scorer:   safety.NewScorer(nil),
		Cache:    cache,
		Store:    store,
		Archiver: archiver,
		Alerts:   alerts,
		Metrics:  m,
		Logger:   logger,
	})

	invoker, err := buildInvoker(awsCfg, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := agents.NewRegistry(cfg.AgentTimeout)
	breakers := agents.NewBreakers(agents.BreakerConfig{
		FailureThreshold: uint32(cfg.BreakerFailureThreshold),
		RecoveryTimeout:  cfg.BreakerRecoveryTimeout,
	}, m, logger)
	dispatcher := agents.NewDispatcher(registry, invoker, breakers, m, logger)

	core := approuter.New(intent.NewClassifier(), registry, dispatcher, safetySvc, m, logger)
	handler := approuter.NewHandler(core, safetySvc, logger)

	return &Core{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Safety:  safetySvc,
		Router:  core,
		Handler: handler,
	}, nil
}

// BuildReviewWorker wires the moderation queue consumer.
func BuildReviewWorker(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*review.Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if cfg.ReviewQueueURL == "" {
		return nil, fmt.Errorf("bootstrap: review worker requires REVIEW_QUEUE_URL")
	}
	if logger == nil {
		logger = logging.Default()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}

	var summarizer *review.Summarizer
	if cfg.BedrockModelID != "" {
		summarizer = review.NewSummarizer(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	} else {
		summarizer = review.NewSummarizer(nil, "")
		logger.Warn("briefing summaries use the template fallback (BEDROCK_MODEL_ID not set)")
	}

	email := buildEmailSender(awsCfg, cfg, logger)

	return review.NewWorker(
		sqs.NewFromConfig(awsCfg),
		cfg.ReviewQueueURL,
		summarizer,
		email,
		cfg.ModerationEmail,
		logger,
	), nil
}

func buildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg.ModerationEmail == "" {
		logger.Warn("moderation briefings are logged only (MODERATION_EMAIL not set)")
		return notify.NewStubEmailSender(logger)
	}
	return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
		FromEmail: cfg.AlertFromEmail,
		FromName:  cfg.AlertFromName,
	}, logger)
}

func buildInvoker(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) (agents.Invoker, error) {
	switch cfg.AgentTransport {
	case "lambda":
		return agents.NewLambdaInvoker(awslambda.NewFromConfig(awsCfg), cfg.AgentLambdaPrefix, logger), nil
	case "http", "":
		invoker, err := agents.NewHTTPInvoker(agents.HTTPInvokerConfig{
			BaseURL:    cfg.AgentBaseURL,
			Timeout:    cfg.AgentTimeout,
			MaxRetries: cfg.AgentMaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		return invoker, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown agent transport %q", cfg.AgentTransport)
	}
}
