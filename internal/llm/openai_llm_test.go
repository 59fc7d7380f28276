package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/namnv2496/gameforge/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		resp := openai.ChatCompletionResponse{}
		if content != "" {
			resp.Choices = []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIClient_Generate(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newTestServer(t, "print('hi')", &seen)
	defer srv.Close()

	conf := config.DefaultConfig().LLM
	conf.BaseURL = srv.URL + "/v1"
	client, err := NewOpenAIClient(conf)
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), "system rules", "user request")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", got)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	assert.Equal(t, "system rules", seen.Messages[0].Content)
	assert.Equal(t, "user request", seen.Messages[1].Content)
	assert.Equal(t, conf.Model, seen.Model)
}

func TestOpenAIClient_EmptyResponse(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newTestServer(t, "", &seen)
	defer srv.Close()

	conf := config.DefaultConfig().LLM
	conf.BaseURL = srv.URL + "/v1"
	client, err := NewOpenAIClient(conf)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewOpenAIClient_RequiresKeyOrBaseURL(t *testing.T) {
	conf := config.DefaultConfig().LLM
	conf.APIKeyEnv = "GAMEFORGE_TEST_UNSET_KEY"
	_, err := NewOpenAIClient(conf)
	assert.Error(t, err)
}
