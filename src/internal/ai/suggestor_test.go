package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/GasGuardian/src/internal/ai/client"
	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
)

const modelAnswer = `Here are the gas optimizations:
1. **cache** the storage variable balances[msg.sender] in a memory variable
2. Use unchecked arithmetic for the loop counter increment
- make the function external instead of public to save calldata copies
Function: deposit
3. nice code`

var depositFn = gasparser.FunctionInfo{
	Name:            "deposit",
	Visibility:      "public",
	StateMutability: "payable",
	SourceCode:      "function deposit() public payable { balances[msg.sender] += msg.value; }",
	Patterns:        []gasparser.PatternFinding{{Kind: gasparser.PatternStorageWrite}},
}

// chatServer 返回固定回答的 /chat/completions 服务，统计请求次数
func chatServer(t *testing.T, status func(n int32) int, answer string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req client.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		code := http.StatusOK
		if status != nil {
			code = status(n)
		}
		if code != http.StatusOK {
			http.Error(w, `{"error":"nope"}`, code)
			return
		}
		resp := client.ChatCompletionResponse{
			Choices: []client.Choice{{Message: client.Message{Role: "assistant", Content: answer}}},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, baseURL string) AIClient {
	t.Helper()
	c, err := NewAIClient(AIClientConfig{
		Provider:   "deepseek",
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestParseSuggestions(t *testing.T) {
	suggestions := ParseSuggestions(modelAnswer, 3)
	require.Len(t, suggestions, 3)

	assert.Equal(t, "Cache the storage variable balances[msg.sender] in a memory variable.", suggestions[0].Message)
	assert.Equal(t, rules.ImpactHigh, suggestions[0].Impact)
	assert.Equal(t, "Use unchecked arithmetic for the loop counter increment.", suggestions[1].Message)
	assert.Equal(t, rules.ImpactMedium, suggestions[1].Impact)
	assert.Equal(t, rules.ImpactLow, suggestions[2].Impact)

	for _, s := range suggestions {
		assert.Equal(t, rules.SourceLLM, s.Source)
		assert.Equal(t, SuggestionType, s.Type)
		assert.InDelta(t, llmConfidence, s.Confidence, 1e-9)
	}

	assert.Len(t, ParseSuggestions(modelAnswer, 1), 1)
	assert.Empty(t, ParseSuggestions("Looks fine to me, nothing to change here.", 3))
}

func TestEstimateImpact(t *testing.T) {
	assert.Equal(t, rules.ImpactHigh, EstimateImpact("Pack the struct fields"))
	assert.Equal(t, rules.ImpactHigh, EstimateImpact("Avoid repeated SSTORE"))
	assert.Equal(t, rules.ImpactMedium, EstimateImpact("Hoist the length out of the loop"))
	assert.Equal(t, rules.ImpactLow, EstimateImpact("Use custom errors instead of require strings"))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(depositFn, 2)
	assert.Contains(t, prompt, "at most 2")
	assert.Contains(t, prompt, "Function: deposit (public, payable)")
	assert.Contains(t, prompt, "Issues: "+string(gasparser.PatternStorageWrite))
	assert.Contains(t, prompt, depositFn.SourceCode)

	long := depositFn
	long.SourceCode = "function big() {" + strings.Repeat("x", maxPromptCode+100) + "}"
	prompt = BuildPrompt(long, 3)
	assert.Contains(t, prompt, "// ...")
	assert.NotContains(t, prompt, "x}")
}

func TestSuggestor_CachesByFunctionCode(t *testing.T) {
	srv, calls := chatServer(t, nil, modelAnswer)
	dir := t.TempDir()
	ctx := context.Background()

	cache, err := NewCache(dir, time.Hour)
	require.NoError(t, err)
	s := NewSuggestor(newTestClient(t, srv.URL), cache, SuggestorConfig{})

	first, err := s.Suggest(ctx, depositFn)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := s.Suggest(ctx, depositFn)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	// 新进程使用同一缓存目录
	cache2, err := NewCache(dir, time.Hour)
	require.NoError(t, err)
	fresh := NewSuggestor(newTestClient(t, srv.URL), cache2, SuggestorConfig{})
	_, err = fresh.Suggest(ctx, depositFn)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	// 过期后重新请求
	cache2.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = fresh.Suggest(ctx, depositFn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestSuggestor_SkipsFunctionsWithoutCode(t *testing.T) {
	srv, calls := chatServer(t, nil, modelAnswer)
	s := NewSuggestor(newTestClient(t, srv.URL), nil, SuggestorConfig{})

	suggestions, err := s.Suggest(context.Background(), gasparser.FunctionInfo{Name: "empty"})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestSuggestor_MaxSuggestions(t *testing.T) {
	srv, _ := chatServer(t, nil, modelAnswer)
	s := NewSuggestor(newTestClient(t, srv.URL), nil, SuggestorConfig{MaxSuggestions: 2})

	suggestions, err := s.Suggest(context.Background(), depositFn)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestChatClient_Retries(t *testing.T) {
	t.Run("client error is not retried", func(t *testing.T) {
		srv, calls := chatServer(t, func(int32) int { return http.StatusUnauthorized }, modelAnswer)
		c := newTestClient(t, srv.URL)

		_, err := c.Analyze(context.Background(), "prompt")
		var nre *client.NonRetryableError
		require.True(t, errors.As(err, &nre))
		assert.Equal(t, http.StatusUnauthorized, nre.StatusCode)
		assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	})

	t.Run("server error is retried", func(t *testing.T) {
		srv, calls := chatServer(t, func(n int32) int {
			if n == 1 {
				return http.StatusInternalServerError
			}
			return http.StatusOK
		}, modelAnswer)
		c := newTestClient(t, srv.URL)

		output, err := c.Analyze(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, modelAnswer, output)
		assert.EqualValues(t, 2, atomic.LoadInt32(calls))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		srv, calls := chatServer(t, func(int32) int { return http.StatusTooManyRequests }, modelAnswer)
		c := newTestClient(t, srv.URL)

		_, err := c.Analyze(context.Background(), "prompt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeded max retries")
		assert.EqualValues(t, 3, atomic.LoadInt32(calls))
	})
}

func TestLocalLLMClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "codellama", req["model"])
		assert.Equal(t, false, req["stream"])
		_, _ = w.Write([]byte(`{"model":"codellama","response":"1. Use calldata for read-only array params","done":true}`))
	}))
	defer srv.Close()

	c, err := NewAIClient(AIClientConfig{Provider: "ollama", BaseURL: srv.URL})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "Local LLM (codellama)", c.GetName())

	output, err := c.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Contains(t, output, "calldata")
}

func TestNewAIClient_Errors(t *testing.T) {
	_, err := NewAIClient(AIClientConfig{Provider: "claude-v9", APIKey: "k"})
	assert.ErrorContains(t, err, "unsupported AI provider")

	_, err = NewAIClient(AIClientConfig{Provider: "openai"})
	assert.ErrorContains(t, err, "API key is required")

	assert.NoError(t, ValidateProvider("DeepSeek"))
	assert.Error(t, ValidateProvider("bard"))
}

func TestNewFromConfig(t *testing.T) {
	srv, calls := chatServer(t, nil, modelAnswer)

	s, err := NewFromConfig(config.AIConfig{
		Enabled:        true,
		Provider:       "openai",
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		MaxSuggestions: 1,
		CacheDir:       t.TempDir(),
	})
	require.NoError(t, err)
	defer s.Close()

	suggestions, err := s.Suggest(context.Background(), depositFn)
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	t.Setenv("DEEPSEEK_API_KEY", "")
	_, err = NewFromConfig(config.AIConfig{Provider: "deepseek"})
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewFromConfig(config.AIConfig{Provider: "bard"})
	assert.ErrorContains(t, err, "invalid provider")
}
