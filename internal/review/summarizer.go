package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

const summarizerSystemPrompt = "You write short factual briefings for a child-safety moderation team. " +
	"Summarize the incident in at most three sentences. Never quote the child's words verbatim. " +
	"Do not speculate beyond the signals provided."

// Summarizer turns an alert into a short moderator briefing. Without a
// Bedrock client it falls back to a template summary, so summarization never
// blocks alert delivery.
type Summarizer struct {
	api     bedrockConverseAPI
	modelID string
}

// NewSummarizer builds a summarizer. Both arguments may be zero; the
// fallback template is used whenever the client or model is missing.
func NewSummarizer(api bedrockConverseAPI, modelID string) *Summarizer {
	return &Summarizer{api: api, modelID: modelID}
}

// Summarize produces the briefing text for an alert.
func (s *Summarizer) Summarize(ctx context.Context, alert *Alert) string {
	if s.api == nil || strings.TrimSpace(s.modelID) == "" {
		return templateSummary(alert)
	}
	text, err := s.converse(ctx, alert)
	if err != nil {
		return templateSummary(alert)
	}
	return text
}

func (s *Summarizer) converse(ctx context.Context, alert *Alert) (string, error) {
	prompt := fmt.Sprintf(
		"Incident %s, severity %s, category %s.\nDetection notes: %s.",
		alert.Incident.ID, alert.Incident.Severity, alert.Incident.Category, alert.Incident.Description,
	)
	if alert.Analysis != nil {
		prompt += fmt.Sprintf("\nRisk score %d, signals: %s.",
			alert.Analysis.RiskScore, strings.Join(alert.Analysis.DetectedSignals, ", "))
	}

	out, err := s.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(s.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: summarizerSystemPrompt},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(300),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return "", err
	}

	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msgOut.Value.Content) == 0 {
		return "", errors.New("review: bedrock response did not include a message output")
	}
	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", errors.New("review: bedrock response contained no text content blocks")
	}
	return text, nil
}

func templateSummary(alert *Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incident %s (%s, %s) requires review.",
		alert.Incident.ID, alert.Incident.Severity, alert.Incident.Category)
	if alert.Analysis != nil {
		fmt.Fprintf(&b, " Risk score %d.", alert.Analysis.RiskScore)
		if len(alert.Analysis.DetectedSignals) > 0 {
			fmt.Fprintf(&b, " Signals: %s.", strings.Join(alert.Analysis.DetectedSignals, ", "))
		}
	}
	return b.String()
}
