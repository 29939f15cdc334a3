package llmcaller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/httpclient"
)

// OpenAIClient is a ChatClient backed by an OpenAI-compatible
// `/chat/completions` endpoint (the streaming `choices[0].delta` shape
// NativeDelta already models). It is a thin replacement for what
// pkg/llms.OpenAIProvider does against the Responses API: same
// httpclient.Client transport, retry, and TLS/rate-limit header
// conventions, but targeting the simpler completions endpoint most
// OpenAI-compatible backends (local models, proxies) actually serve.
type OpenAIClient struct {
	httpClient *httpclient.Client
	baseURL    string
	apiKey     string
}

// NewOpenAIClient builds an OpenAIClient. baseURL defaults to the
// public OpenAI API when empty; per-request Request.BaseURL overrides
// it.
func NewOpenAIClient(baseURL, apiKey string, opts ...httpclient.Option) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	allOpts := append([]httpclient.Option{
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	}, opts...)
	return &OpenAIClient{
		httpClient: httpclient.New(allOpts...),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatToolWire struct {
	Type     string            `json:"type"`
	Function chatToolWireInner `json:"function"`
}

type chatToolWireInner struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Stream implements ChatClient by POSTing req to the completions
// endpoint with stream:true and translating each `data:` SSE line into
// a RawChunk carrying a NativeDelta.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan RawChunk, error) {
	base := req.BaseURL
	if base == "" {
		base = c.baseURL
	}

	body, err := c.buildBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	cancel := func() {}
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		httpReq = httpReq.WithContext(ctx)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("chat completion: HTTP %d", resp.StatusCode)
	}

	out := make(chan RawChunk, 16)
	go func() {
		defer close(out)
		defer cancel()
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}
			var frame chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				select {
				case out <- RawChunk{Err: fmt.Errorf("decode stream chunk: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- RawChunk{Native: frame.toNativeDelta()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case out <- RawChunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (c *OpenAIClient) buildBody(req Request) ([]byte, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	tools := make([]chatToolWire, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, chatToolWire{
			Type: "function",
			Function: chatToolWireInner{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   true,
	}
	if len(tools) > 0 {
		payload["tools"] = tools
	}
	for k, v := range req.Extra {
		payload[k] = v
	}
	return json.Marshal(payload)
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *chatCompletionChunk) toNativeDelta() *NativeDelta {
	d := &NativeDelta{}
	if len(c.Choices) > 0 {
		choice := c.Choices[0]
		d.Content = choice.Delta.Content
		d.ReasoningContent = choice.Delta.ReasoningContent
		d.FinishReason = choice.FinishReason
		for _, tc := range choice.Delta.ToolCalls {
			d.ToolCalls = append(d.ToolCalls, NativeToolCallDelta{
				Index:        tc.Index,
				ID:           tc.ID,
				FunctionName: tc.Function.Name,
				FunctionArgs: tc.Function.Arguments,
			})
		}
	}
	if c.Usage != nil {
		d.Usage = &Usage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
			TotalTokens:      c.Usage.TotalTokens,
		}
	}
	return d
}

