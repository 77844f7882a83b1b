// Package records is the client for the db-select service, the read-only
// data-access collaborator that fronts the Conversations and Users tables.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/leadloop/quill/internal/conversation"
	"github.com/leadloop/quill/internal/prompt"
)

// nullSentinel is how the profile store marks an unset preference.
const nullSentinel = "NULL"

type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

// SelectRequest is the generic read request understood by db-select.
type SelectRequest struct {
	TableName string `json:"table_name"`
	IndexName string `json:"index_name,omitempty"`
	KeyName   string `json:"key_name"`
	KeyValue  any    `json:"key_value"`
}

// Select performs one read against db-select and returns the matching
// records. Only reads are exposed through this path.
func (c *Client) Select(ctx context.Context, req SelectRequest) ([]map[string]any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal select request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("db-select call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("db-select %s/%s returned %d: %s", req.TableName, req.KeyName, resp.StatusCode, string(respBody))
	}

	var items []map[string]any
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("parse db-select response: %w", err)
	}
	return items, nil
}

// EmailChain fetches the full history for a conversation, sorted by
// timestamp ascending.
func (c *Client) EmailChain(ctx context.Context, conversationID string) (conversation.Chain, error) {
	items, err := c.Select(ctx, SelectRequest{
		TableName: "Conversations",
		IndexName: "conversation_id-index",
		KeyName:   "conversation_id",
		KeyValue:  conversationID,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return str(items[i], "timestamp") < str(items[j], "timestamp")
	})

	chain := make(conversation.Chain, 0, len(items))
	for _, item := range items {
		chain = append(chain, conversation.Email{
			Subject:   str(item, "subject"),
			Body:      str(item, "body"),
			Sender:    str(item, "sender"),
			Timestamp: str(item, "timestamp"),
			Type:      str(item, "type"),
		})
	}
	return chain, nil
}

// AccountPreferences fetches the writing preferences for an account. The
// profile store's "NULL" sentinel is mapped to empty here so the rest of the
// pipeline only sees set-or-empty values.
func (c *Client) AccountPreferences(ctx context.Context, accountID string) (prompt.Preferences, error) {
	items, err := c.Select(ctx, SelectRequest{
		TableName: "Users",
		IndexName: "id-index",
		KeyName:   "id",
		KeyValue:  accountID,
	})
	if err != nil {
		return prompt.Preferences{}, err
	}
	if len(items) == 0 {
		return prompt.Preferences{}, fmt.Errorf("account %s not found", accountID)
	}

	rec := items[0]
	return prompt.Preferences{
		Tone:     pref(rec, "lcp_tone"),
		Style:    pref(rec, "lcp_style"),
		Sample:   pref(rec, "lcp_sample_prompt"),
		Location: pref(rec, "location"),
		Bio:      pref(rec, "bio"),
	}, nil
}

// ConversationIDForResponse resolves a conversation id from an outbound
// message id.
func (c *Client) ConversationIDForResponse(ctx context.Context, responseID string) (string, error) {
	if responseID == "" {
		return "", fmt.Errorf("empty response id")
	}
	items, err := c.Select(ctx, SelectRequest{
		TableName: "Conversations",
		IndexName: "response_id-index",
		KeyName:   "response_id",
		KeyValue:  responseID,
	})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no conversation for response %s", responseID)
	}
	return str(items[0], "conversation_id"), nil
}

// AccountIDForEmail resolves an account id from its response address.
func (c *Client) AccountIDForEmail(ctx context.Context, email string) (string, error) {
	items, err := c.Select(ctx, SelectRequest{
		TableName: "Users",
		IndexName: "responseEmail-index",
		KeyName:   "responseEmail",
		KeyValue:  strings.ToLower(email),
	})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no account for email %s", email)
	}
	return str(items[0], "id"), nil
}

// AccountEmail resolves the response address for an account id.
func (c *Client) AccountEmail(ctx context.Context, accountID string) (string, error) {
	items, err := c.Select(ctx, SelectRequest{
		TableName: "Users",
		IndexName: "id-index",
		KeyName:   "id",
		KeyValue:  accountID,
	})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("account %s not found", accountID)
	}
	return str(items[0], "responseEmail"), nil
}

func str(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func pref(rec map[string]any, key string) string {
	v := str(rec, key)
	if v == nullSentinel {
		return ""
	}
	return v
}
