package together

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.together.xyz/v1/chat/completions"

// stopSequences is sent with every completion request. The models used for
// drafting tend to run past the email body without them.
var stopSequences = []string{"<|im_end|>", "<|endoftext|>"}

// ErrMalformedResponse indicates the API answered 200 but the body lacked the
// expected completion field.
var ErrMalformedResponse = errors.New("malformed completion response")

// APIError is a non-success status from the completions endpoint. The raw
// response body is kept so the caller can surface it.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("together api error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Hyperparameters are the per-scenario generation settings, serialized inline
// into the completion request.
type Hyperparameters struct {
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Hyperparameters
	Stop   []string `json:"stop"`
	Stream bool     `json:"stream"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Completion is a successful result, with token usage for audit records.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Complete sends a chat completion request and returns the generated text
// with token usage. Streaming is always disabled.
func (c *Client) Complete(ctx context.Context, model string, messages []Message, hp Hyperparameters) (Completion, error) {
	reqBody := request{
		Model:           model,
		Messages:        messages,
		Hyperparameters: hp,
		Stop:            stopSequences,
		Stream:          false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Completion{}, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(apiResp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: missing choices", ErrMalformedResponse)
	}

	return Completion{
		Text:             apiResp.Choices[0].Message.Content,
		PromptTokens:     apiResp.Usage.PromptTokens,
		CompletionTokens: apiResp.Usage.CompletionTokens,
	}, nil
}
