package review

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/require"

	"github.com/brightbuddy-ai/platform/internal/notify"
	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

type fakeQueue struct {
	sent     []*sqs.SendMessageInput
	sendErr  error
	pending  []sqstypes.Message
	deleted  []string
	received int
}

func (f *fakeQueue) SendMessage(_ context.Context, input *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, input)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeQueue) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.received++
	msgs := f.pending
	f.pending = nil
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeQueue) DeleteMessage(_ context.Context, input *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(input.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type captureEmail struct {
	messages []notify.EmailMessage
	err      error
}

func (c *captureEmail) Send(_ context.Context, msg notify.EmailMessage) error {
	c.messages = append(c.messages, msg)
	return c.err
}

func testIncident() *safety.Incident {
	return &safety.Incident{
		ID:          "inc-abc",
		UserID:      "user-1",
		Severity:    safety.SeverityCritical,
		Category:    safety.CategoryAutomated,
		Description: "automated detection: hurt myself",
		Status:      safety.StatusOpen,
	}
}

func TestPublisherEnqueuesAlert(t *testing.T) {
	queue := &fakeQueue{}
	pub := NewPublisher(queue, "https://sqs.test/alerts", logging.Discard())

	analysis := &safety.Analysis{AnalysisID: "abc", RiskScore: 90, DetectedSignals: []string{"hurt myself"}}
	require.NoError(t, pub.PublishAlert(context.Background(), testIncident(), analysis))

	require.Len(t, queue.sent, 1)
	require.Equal(t, "https://sqs.test/alerts", aws.ToString(queue.sent[0].QueueUrl))

	var alert Alert
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(queue.sent[0].MessageBody)), &alert))
	require.NotEmpty(t, alert.AlertID)
	require.Equal(t, "inc-abc", alert.Incident.ID)
	require.Equal(t, 90, alert.Analysis.RiskScore)
}

func TestPublisherPropagatesQueueErrors(t *testing.T) {
	queue := &fakeQueue{sendErr: errors.New("queue down")}
	pub := NewPublisher(queue, "https://sqs.test/alerts", logging.Discard())

	err := pub.PublishAlert(context.Background(), testIncident(), nil)
	require.Error(t, err)
}

func TestTemplateSummaryWithoutAnalysis(t *testing.T) {
	got := templateSummary(&Alert{Incident: testIncident()})
	require.Contains(t, got, "inc-abc")
	require.Contains(t, got, "critical")
}

func TestSummarizerFallsBackWithoutClient(t *testing.T) {
	s := NewSummarizer(nil, "")
	alert := &Alert{
		Incident: testIncident(),
		Analysis: &safety.Analysis{RiskScore: 90, DetectedSignals: []string{"hurt myself"}},
	}
	got := s.Summarize(context.Background(), alert)
	require.Contains(t, got, "Risk score 90")
	require.Contains(t, got, "hurt myself")
}

type fakeBedrock struct {
	text string
	err  error
}

func (f *fakeBedrock) Converse(_ context.Context, _ *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: f.text},
				},
			},
		},
	}, nil
}

func TestSummarizerUsesModelOutput(t *testing.T) {
	s := NewSummarizer(&fakeBedrock{text: "A critical self-harm signal was detected."}, "model-1")
	got := s.Summarize(context.Background(), &Alert{Incident: testIncident()})
	require.Equal(t, "A critical self-harm signal was detected.", got)
}

func TestSummarizerFallsBackOnModelError(t *testing.T) {
	s := NewSummarizer(&fakeBedrock{err: errors.New("throttled")}, "model-1")
	got := s.Summarize(context.Background(), &Alert{Incident: testIncident()})
	require.Contains(t, got, "inc-abc")
}

func TestWorkerProcessesAndDeletes(t *testing.T) {
	alert := Alert{AlertID: "alert-1", Incident: testIncident()}
	body, err := json.Marshal(alert)
	require.NoError(t, err)

	queue := &fakeQueue{pending: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String(string(body)),
		ReceiptHandle: aws.String("rh1"),
	}}}
	email := &captureEmail{}
	w := NewWorker(queue, "https://sqs.test/alerts", nil, email, "mods@example.com", logging.Discard())

	require.NoError(t, w.poll(context.Background()))

	require.Len(t, email.messages, 1)
	require.Equal(t, "mods@example.com", email.messages[0].To)
	require.Contains(t, email.messages[0].Subject, "inc-abc")
	require.Equal(t, []string{"rh1"}, queue.deleted)
}

func TestWorkerLeavesFailedMessages(t *testing.T) {
	alert := Alert{AlertID: "alert-1", Incident: testIncident()}
	body, err := json.Marshal(alert)
	require.NoError(t, err)

	queue := &fakeQueue{pending: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String(string(body)),
		ReceiptHandle: aws.String("rh1"),
	}}}
	email := &captureEmail{err: errors.New("smtp down")}
	w := NewWorker(queue, "https://sqs.test/alerts", nil, email, "mods@example.com", logging.Discard())

	require.NoError(t, w.poll(context.Background()))
	require.Empty(t, queue.deleted)
}

func TestWorkerSkipsMalformedAlerts(t *testing.T) {
	queue := &fakeQueue{pending: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String("not json"),
		ReceiptHandle: aws.String("rh1"),
	}}}
	w := NewWorker(queue, "https://sqs.test/alerts", nil, &captureEmail{}, "mods@example.com", logging.Discard())

	require.NoError(t, w.poll(context.Background()))
	require.Empty(t, queue.deleted)
}
