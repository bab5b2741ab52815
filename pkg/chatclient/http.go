package chatclient

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
)

// HTTPBackend talks to the chat REST API.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// envelope matches the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return fmt.Errorf("unexpected response from %s: %w", path, err)
	}
	if !env.Success {
		return fmt.Errorf("%s: %s (code %d)", path, env.Message, env.Code)
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (b *HTTPBackend) RegisterUser(ctx context.Context, email, name string) (*User, error) {
	req := map[string]string{"email": email, "name": name}
	var user User
	if err := b.do(ctx, http.MethodPost, "/api/user/v1/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (b *HTTPBackend) ListSessions(ctx context.Context, email string) ([]Session, error) {
	var data struct {
		UserId   string    `json:"user_id"`
		Sessions []Session `json:"sessions"`
	}
	path := "/api/chat/v1/sessions/" + url.PathEscape(email)
	if err := b.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Sessions, nil
}

func (b *HTTPBackend) CreateSession(ctx context.Context, email, title string) (*Session, error) {
	req := map[string]string{"user_email": email, "title": title}
	var data struct {
		User    User    `json:"user"`
		Session Session `json:"session"`
	}
	if err := b.do(ctx, http.MethodPost, "/api/chat/v1", req, &data); err != nil {
		return nil, err
	}
	return &data.Session, nil
}

func (b *HTTPBackend) StoreMessage(ctx context.Context, sessionId, role, content string, sources []Source) error {
	req := map[string]interface{}{
		"session_id": sessionId,
		"role":       role,
		"content":    content,
	}
	if len(sources) > 0 {
		req["sources"] = sources
	}
	return b.do(ctx, http.MethodPost, "/api/message/v1", req, nil)
}

func (b *HTTPBackend) ListMessages(ctx context.Context, sessionId string) ([]Message, error) {
	var data struct {
		SessionId    string    `json:"session_id"`
		MessageCount int       `json:"message_count"`
		Messages     []Message `json:"messages"`
	}
	if err := b.do(ctx, http.MethodGet, "/api/message/v1/"+sessionId, nil, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

func (b *HTTPBackend) Synthesize(ctx context.Context, query string) (*Answer, error) {
	req := map[string]string{"query": query}
	var answer Answer
	if err := b.do(ctx, http.MethodPost, "/api/synthesis/v1", req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}
