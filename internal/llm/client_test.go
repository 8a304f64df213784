package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 测试用的客户端实现
type fakeClient struct {
	name string
}

func (c *fakeClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return &Response{
		Text:       "fake response for: " + prompt,
		ModelName:  c.name,
		FinishTime: time.Now(),
	}, nil
}

func (c *fakeClient) Name() string {
	return c.name
}

func TestNewConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, ModelQwenTurbo, cfg.Model)
		assert.Equal(t, 60*time.Second, cfg.Timeout)
		assert.Equal(t, 3, cfg.MaxRetries)
		assert.Equal(t, 2048, cfg.MaxTokens)
	})

	t.Run("WithOptions", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("test-key"),
			WithBaseURL("http://localhost:8080"),
			WithModel(ModelGPT4oMini),
			WithTimeout(10*time.Second),
			WithMaxRetries(1),
			WithMaxTokens(512),
			WithTemperature(0.2),
			WithTopP(0.5),
		)

		assert.Equal(t, "test-key", cfg.APIKey)
		assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
		assert.Equal(t, ModelGPT4oMini, cfg.Model)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 1, cfg.MaxRetries)
		assert.Equal(t, 512, cfg.MaxTokens)
		assert.Equal(t, float32(0.2), cfg.Temperature)
		assert.Equal(t, float32(0.5), cfg.TopP)
	})
}

func TestGenerateOptions(t *testing.T) {
	opts := &GenerateOptions{}
	for _, opt := range []GenerateOption{
		WithGenerateMaxTokens(100),
		WithGenerateTemperature(0.1),
		WithGenerateTopP(0.8),
	} {
		opt(opts)
	}

	require.NotNil(t, opts.MaxTokens)
	require.NotNil(t, opts.Temperature)
	require.NotNil(t, opts.TopP)
	assert.Equal(t, 100, *opts.MaxTokens)
	assert.Equal(t, float32(0.1), *opts.Temperature)
	assert.Equal(t, float32(0.8), *opts.TopP)
}

func TestClientRegistry(t *testing.T) {
	RegisterClient("fake", func(opts ...Option) (Client, error) {
		cfg := NewConfig(opts...)
		return &fakeClient{name: cfg.Model}, nil
	})

	t.Run("RegisteredClient", func(t *testing.T) {
		client, err := NewClient("fake", WithModel("fake-model"))
		require.NoError(t, err)
		assert.Equal(t, "fake-model", client.Name())

		resp, err := client.Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Contains(t, resp.Text, "hello")
	})

	t.Run("UnregisteredClient", func(t *testing.T) {
		_, err := NewClient("no-such-provider")
		require.Error(t, err)

		llmErr, ok := err.(LLMError)
		require.True(t, ok)
		assert.Equal(t, ErrCodeInvalidRequest, llmErr.Code)
	})

	t.Run("EmptyPrompt", func(t *testing.T) {
		client, err := NewClient("fake")
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "")
		require.Error(t, err)

		llmErr, ok := err.(LLMError)
		require.True(t, ok)
		assert.Equal(t, ErrCodeEmptyPrompt, llmErr.Code)
	})
}

func TestWrapError(t *testing.T) {
	t.Run("PlainError", func(t *testing.T) {
		err := WrapError(assert.AnError, ErrCodeNetworkError)
		assert.Equal(t, ErrCodeNetworkError, err.Code)
		assert.Equal(t, assert.AnError.Error(), err.Message)
	})

	t.Run("AlreadyLLMError", func(t *testing.T) {
		orig := NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited)
		err := WrapError(orig, ErrCodeServerError)
		assert.Equal(t, ErrCodeRateLimited, err.Code)
	})

	t.Run("NilError", func(t *testing.T) {
		err := WrapError(nil, ErrCodeServerError)
		assert.Equal(t, ErrCodeServerError, err.Code)
	})
}
