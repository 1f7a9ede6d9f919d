// Package review forwards review-worthy incidents to human moderators. The
// router publishes alerts onto SQS; a worker drains the queue, summarizes
// each alert and emails the moderation desk.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// Alert is the queue envelope tying an incident to the analysis that
// produced it. Analysis is nil for manually reported incidents.
type Alert struct {
	AlertID     string           `json:"alertId"`
	Incident    *safety.Incident `json:"incident"`
	Analysis    *safety.Analysis `json:"analysis,omitempty"`
	PublishedAt string           `json:"publishedAt"`
}

type sendQueueAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher pushes alerts onto the moderation queue.
type Publisher struct {
	client   sendQueueAPI
	queueURL string
	logger   *logging.Logger
}

// NewPublisher creates a queue-backed alert publisher.
func NewPublisher(client sendQueueAPI, queueURL string, logger *logging.Logger) *Publisher {
	if client == nil {
		panic("review: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("review: queue URL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{client: client, queueURL: queueURL, logger: logger}
}

// PublishAlert enqueues one incident for human review.
func (p *Publisher) PublishAlert(ctx context.Context, incident *safety.Incident, analysis *safety.Analysis) error {
	alert := Alert{
		AlertID:     uuid.NewString(),
		Incident:    incident,
		Analysis:    analysis,
		PublishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("review: encode alert: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("review: publish alert: %w", err)
	}
	p.logger.Info("moderation alert published",
		"alert_id", alert.AlertID,
		"incident_id", incident.ID,
		"severity", incident.Severity,
	)
	return nil
}

var _ safety.AlertPublisher = (*Publisher)(nil)
