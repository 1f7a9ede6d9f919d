package agents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

func TestHTTPInvokerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/content-agent/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	inv, err := NewHTTPInvoker(HTTPInvokerConfig{BaseURL: srv.URL, Logger: logging.Discard()})
	require.NoError(t, err)

	body, err := inv.Invoke(context.Background(), "content-agent", []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestHTTPInvokerRetriesServerErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	inv, err := NewHTTPInvoker(HTTPInvokerConfig{
		BaseURL:    srv.URL,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		Logger:     logging.Discard(),
	})
	require.NoError(t, err)

	body, err := inv.Invoke(context.Background(), "knowledge-agent", []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 2, hits)
}

func TestHTTPInvokerClientErrorIsTerminal(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	inv, err := NewHTTPInvoker(HTTPInvokerConfig{
		BaseURL:    srv.URL,
		MaxRetries: 3,
		Backoff:    time.Millisecond,
		Logger:     logging.Discard(),
	})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), "auth-agent", []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, 1, hits, "4xx responses must not be retried")
}

func TestHTTPInvokerRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPInvoker(HTTPInvokerConfig{})
	assert.Error(t, err)
}

type fakeLambdaAPI struct {
	input *lambda.InvokeInput
	out   *lambda.InvokeOutput
	err   error
}

func (f *fakeLambdaAPI) Invoke(_ context.Context, params *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestLambdaInvokerSuccess(t *testing.T) {
	api := &fakeLambdaAPI{out: &lambda.InvokeOutput{Payload: []byte(`{"ok":true}`)}}
	inv := NewLambdaInvoker(api, "brightbuddy-agent-", logging.Discard())

	body, err := inv.Invoke(context.Background(), "emotion-agent", []byte(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "brightbuddy-agent-emotion-agent", aws.ToString(api.input.FunctionName))
}

func TestLambdaInvokerFunctionError(t *testing.T) {
	api := &fakeLambdaAPI{out: &lambda.InvokeOutput{
		FunctionError: aws.String("Unhandled"),
		Payload:       []byte(`{"errorMessage":"stack trace here"}`),
	}}
	inv := NewLambdaInvoker(api, "brightbuddy-agent-", logging.Discard())

	_, err := inv.Invoke(context.Background(), "content-agent", []byte(`{}`))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "stack trace", "downstream error payloads must not leak")
}
