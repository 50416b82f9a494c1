package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter fails or succeeds per model identifier and records calls.
type stubCompleter struct {
	failing map[string]error
	replies map[string]string
	calls   []string
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls = append(s.calls, req.Model)
	if err, ok := s.failing[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}
	reply := s.replies[req.Model]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: reply}},
		},
	}, nil
}

func newTestClient(stub *stubCompleter) *Client {
	return &Client{
		api:       stub,
		logger:    zap.NewNop(),
		modelPair: NewModelPair("primary-model", "fallback-model"),
	}
}

func TestNewClient_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewClient(Config{Primary: "a", Fallback: "b"}, logger)
	assert.Error(t, err, "missing API key should be rejected")

	_, err = NewClient(Config{APIKey: "key", Primary: "a"}, logger)
	assert.Error(t, err, "missing fallback model should be rejected")

	client, err := NewClient(Config{APIKey: "key", Primary: "a", Fallback: "b"}, logger)
	require.NoError(t, err)
	primary, fallback := client.Models()
	assert.Equal(t, "a", primary)
	assert.Equal(t, "b", fallback)
}

func TestComplete_PrimarySucceeds(t *testing.T) {
	stub := &stubCompleter{
		replies: map[string]string{"primary-model": "clarity text"},
	}
	client := newTestClient(stub)

	result, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "clarity text", result.Text)
	assert.Equal(t, "primary-model", result.Model)
	assert.Equal(t, []string{"primary-model"}, stub.calls, "fallback must not be invoked when the primary succeeds")
}

func TestComplete_FallbackSucceeds(t *testing.T) {
	stub := &stubCompleter{
		failing: map[string]error{"primary-model": errors.New("quota exceeded")},
		replies: map[string]string{"fallback-model": "fallback clarity"},
	}
	client := newTestClient(stub)

	result, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err, "primary failure must not surface when the fallback succeeds")
	assert.Equal(t, "fallback clarity", result.Text)
	assert.Equal(t, "fallback-model", result.Model)
	assert.Equal(t, []string{"primary-model", "fallback-model"}, stub.calls)
}

func TestComplete_BothFail(t *testing.T) {
	stub := &stubCompleter{
		failing: map[string]error{
			"primary-model":  errors.New("timeout"),
			"fallback-model": errors.New("unavailable"),
		},
	}
	client := newTestClient(stub)

	result, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Nil(t, result)

	var combined *Error
	require.ErrorAs(t, err, &combined)
	assert.Equal(t, "primary-model", combined.Primary)
	assert.Equal(t, "fallback-model", combined.Fallback)
	assert.Contains(t, combined.Error(), "timeout")
	assert.Contains(t, combined.Error(), "unavailable")
	assert.Equal(t, []string{"primary-model", "fallback-model"}, stub.calls, "exactly two attempts, no further retries")
}

func TestComplete_EmptyChoicesTreatedAsFailure(t *testing.T) {
	stub := &stubCompleter{
		replies: map[string]string{"fallback-model": "recovered"},
		failing: map[string]error{},
	}
	// Primary returns a well-formed response with zero choices.
	client := &Client{
		api: completerFunc(func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			if req.Model == "primary-model" {
				return openai.ChatCompletionResponse{}, nil
			}
			return stub.CreateChatCompletion(context.Background(), req)
		}),
		logger:    zap.NewNop(),
		modelPair: NewModelPair("primary-model", "fallback-model"),
	}

	result, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fallback-model", result.Model)
}

type completerFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

func (f completerFunc) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return f(ctx, req)
}

func TestProbe(t *testing.T) {
	testCases := []struct {
		name           string
		failing        map[string]error
		expectedStatus string
		expectedModel  string
	}{
		{
			name:           "primary healthy",
			failing:        map[string]error{},
			expectedStatus: StatusWorking,
			expectedModel:  "primary-model",
		},
		{
			name:           "fallback active",
			failing:        map[string]error{"primary-model": errors.New("down")},
			expectedStatus: StatusFallbackActive,
			expectedModel:  "fallback-model",
		},
		{
			name: "both down",
			failing: map[string]error{
				"primary-model":  errors.New("down"),
				"fallback-model": errors.New("down"),
			},
			expectedStatus: StatusDown,
			expectedModel:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{
				failing: tc.failing,
				replies: map[string]string{"primary-model": "ok", "fallback-model": "ok"},
			}
			client := newTestClient(stub)

			probe := client.Probe(context.Background())
			assert.Equal(t, tc.expectedStatus, probe.Status)
			assert.Equal(t, tc.expectedModel, probe.Model)
		})
	}
}

func TestSetModels(t *testing.T) {
	stub := &stubCompleter{replies: map[string]string{"new-primary": "text"}}
	client := newTestClient(stub)

	client.SetModels("new-primary", "new-fallback")
	primary, fallback := client.Models()
	assert.Equal(t, "new-primary", primary)
	assert.Equal(t, "new-fallback", fallback)

	// Empty values keep the previous identifiers.
	client.SetModels("", "")
	primary, fallback = client.Models()
	assert.Equal(t, "new-primary", primary)
	assert.Equal(t, "new-fallback", fallback)

	result, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "new-primary", result.Model)
}

func TestModelPair_ConcurrentAccess(t *testing.T) {
	pair := NewModelPair("a", "b")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			pair.Set(fmt.Sprintf("primary-%d", i), fmt.Sprintf("fallback-%d", i))
		}
	}()

	for i := 0; i < 100; i++ {
		primary, fallback := pair.Get()
		if primary == "" || fallback == "" {
			t.Fatal("ModelPair returned empty identifiers during concurrent access")
		}
	}
	<-done
}
