package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/brightbuddy-ai/platform/internal/notify"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

type receiveQueueAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

const (
	receiveBatchSize = 10
	longPollSeconds  = 20
)

// Worker drains the moderation queue and emails briefings to the moderation
// desk. Messages that fail processing are left on the queue for redelivery.
type Worker struct {
	queue      receiveQueueAPI
	queueURL   string
	summarizer *Summarizer
	email      notify.EmailSender
	recipient  string
	logger     *logging.Logger
}

// NewWorker builds a review worker.
func NewWorker(queue receiveQueueAPI, queueURL string, summarizer *Summarizer, email notify.EmailSender, recipient string, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("review: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("review: queue URL cannot be empty")
	}
	if summarizer == nil {
		summarizer = NewSummarizer(nil, "")
	}
	if email == nil {
		email = notify.NewStubEmailSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:      queue,
		queueURL:   queueURL,
		summarizer: summarizer,
		email:      email,
		recipient:  recipient,
		logger:     logger,
	}
}

// Run long-polls the queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("review worker started", "queue_url", w.queueURL)
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("review worker stopping")
			return nil
		}
		if err := w.poll(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("review queue poll failed", "error", err)
		}
	}
}

func (w *Worker) poll(ctx context.Context) error {
	out, err := w.queue.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		MaxNumberOfMessages: receiveBatchSize,
		WaitTimeSeconds:     longPollSeconds,
	})
	if err != nil {
		return fmt.Errorf("review: receive messages: %w", err)
	}

	for _, msg := range out.Messages {
		if err := w.handle(ctx, aws.ToString(msg.Body)); err != nil {
			w.logger.Error("alert processing failed, leaving message for redelivery",
				"message_id", aws.ToString(msg.MessageId), "error", err)
			continue
		}
		_, err := w.queue.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		})
		if err != nil {
			w.logger.Error("alert delete failed", "message_id", aws.ToString(msg.MessageId), "error", err)
		}
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, body string) error {
	var alert Alert
	if err := json.Unmarshal([]byte(body), &alert); err != nil {
		return fmt.Errorf("review: decode alert: %w", err)
	}
	if alert.Incident == nil {
		return errors.New("review: alert has no incident")
	}

	summary := w.summarizer.Summarize(ctx, &alert)

	subject := fmt.Sprintf("[%s] Safety incident %s", alert.Incident.Severity, alert.Incident.ID)
	if err := w.email.Send(ctx, notify.EmailMessage{
		To:      w.recipient,
		ToName:  "Moderation Desk",
		Subject: subject,
		Body:    summary,
	}); err != nil {
		return fmt.Errorf("review: send briefing: %w", err)
	}

	w.logger.Info("moderation briefing sent",
		"alert_id", alert.AlertID,
		"incident_id", alert.Incident.ID,
		"severity", alert.Incident.Severity,
	)
	return nil
}
