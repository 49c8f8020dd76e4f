// Package remote is the client side of the server API: sync transport,
// connectivity probe and authentication.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/localstore"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"
)

// Client talks to a Spendly server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. Deadlines come from the caller's
// context; timeout only caps requests made without one.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Sync posts the batch and returns the server's changes.
func (c *Client) Sync(ctx context.Context, token string, req syncproto.Request) (syncproto.Response, error) {
	var resp syncproto.Response
	if err := c.do(ctx, http.MethodPost, "/api/sync", token, req, &resp); err != nil {
		return syncproto.Response{}, err
	}
	return resp, nil
}

// Reachable reports whether the health endpoint answers.
func (c *Client) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 300
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// envelope is the {code, data, message} wrapper used by the JSON API.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", credentials{email, password}, &env); err != nil {
		return "", err
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return "", errors.New("login: no token in response")
	}
	return data.Token, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) error {
	var env envelope
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", credentials{email, password}, &env)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, syncproto.ErrUnauthorized)
	}
	if resp.StatusCode >= 300 {
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Message != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, env.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ---------- session ----------

// Session is the persisted login of the CLI.
type Session struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// SessionFile stores the session next to the ledger and serves as the
// reconciler's token source.
type SessionFile struct {
	file *localstore.File[Session]
}

func NewSessionFile(path, key string) *SessionFile {
	return &SessionFile{file: localstore.New[Session](path, key)}
}

// Token returns the stored bearer token, or "" when logged out.
func (s *SessionFile) Token() string {
	sess, found, err := s.file.Load()
	if err != nil || !found {
		return ""
	}
	return sess.Token
}

func (s *SessionFile) Save(sess Session) error { return s.file.Save(sess) }

func (s *SessionFile) Clear() error { return s.file.Remove() }
