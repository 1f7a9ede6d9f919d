// The router-lambda binary serves the message router as an AWS Lambda
// function. It accepts the same {action, data} envelope as POST /v1/events
// on the API server, either directly or wrapped in an API Gateway v2 event.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/brightbuddy-ai/platform/internal/app/bootstrap"
	appconfig "github.com/brightbuddy-ai/platform/internal/config"
	approuter "github.com/brightbuddy-ai/platform/internal/router"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	core, err := bootstrap.BuildCore(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("failed to build routing core", "error", err)
		os.Exit(1)
	}

	logger.Info("router lambda ready", "agent_transport", cfg.AgentTransport)
	lambda.Start(newHandler(core.Handler))
}

// newHandler handles raw envelope invocations and API Gateway v2 proxy
// events. The shape is sniffed from the payload so one function serves both.
func newHandler(h *approuter.Handler) func(ctx context.Context, raw json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, raw json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
		body := []byte(raw)

		var gw events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &gw); err == nil && gw.RequestContext.HTTP.Method != "" {
			decoded, err := decodeBody(gw)
			if err != nil {
				return events.APIGatewayV2HTTPResponse{StatusCode: 400, Body: "invalid body"}, nil
			}
			body = decoded
		}

		resp := h.Handle(ctx, body)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Headers:    map[string]string{"content-type": "application/json"},
		}, nil
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}
