package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// LambdaInvokeAPI is the subset of the Lambda client used for agent dispatch.
type LambdaInvokeAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker dispatches agents deployed as Lambda functions. The function
// name is the configured prefix plus the agent name.
type LambdaInvoker struct {
	client LambdaInvokeAPI
	prefix string
	logger *logging.Logger
}

// NewLambdaInvoker creates a LambdaInvoker.
func NewLambdaInvoker(client LambdaInvokeAPI, prefix string, logger *logging.Logger) *LambdaInvoker {
	if client == nil {
		panic("agents: lambda client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LambdaInvoker{client: client, prefix: prefix, logger: logger}
}

// Invoke performs a synchronous Lambda invocation and returns the raw payload.
func (c *LambdaInvoker) Invoke(ctx context.Context, agent string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(agent) == "" {
		return nil, errors.New("agents: agent name required")
	}
	fn := c.prefix + agent

	out, err := c.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(fn),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("agents: lambda invoke %s: %w", fn, err)
	}
	if out.FunctionError != nil {
		// The function ran but reported an error; surface a summary, never
		// the downstream stack trace.
		return nil, fmt.Errorf("agents: lambda %s returned function error %s", fn, aws.ToString(out.FunctionError))
	}
	return out.Payload, nil
}
