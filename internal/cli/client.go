package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%s, current status: %s)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// History fetches conversation messages after a cursor. Satisfies the
// chat client's history fetcher for reconnect catch-up.
func (c *Client) History(ctx context.Context, key model.ConversationKey, after model.MessageID) ([]*model.ChatMessage, error) {
	path := fmt.Sprintf("/api/v1/conversations/%s/messages", url.PathEscape(string(key)))
	if after != "" {
		path += "?after=" + url.QueryEscape(string(after))
	}

	var messages []Message
	if err := c.Get(path, &messages); err != nil {
		return nil, err
	}

	out := make([]*model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.toModel())
	}
	return out, nil
}

func (m Message) toModel() *model.ChatMessage {
	return &model.ChatMessage{
		ID:               model.MessageID(m.ID),
		ConversationKey:  model.ConversationKey(m.ConversationKey),
		SenderID:         model.UserID(m.SenderID),
		ReceiverID:       model.UserID(m.ReceiverID),
		TryoutID:         model.TryoutID(m.ChatID),
		Kind:             model.MessageKind(m.Kind),
		Body:             m.Body,
		ClientRef:        m.ClientRef,
		InvitationStatus: model.InvitationStatus(m.InvitationStatus),
		TournamentID:     model.TournamentID(m.TournamentID),
		TournamentName:   m.TournamentName,
		CreatedAt:        m.CreatedAt,
	}
}
