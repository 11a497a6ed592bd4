// Package auth talks to the backend's HTTP account endpoints. The game
// socket never sees credentials; it only receives the player id that a
// successful login yields.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chronosync/chronosync-go/internal/wire"
	"github.com/rs/zerolog"
)

// Client wraps the register/login endpoints under one base URL.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zerolog.Logger
}

func NewClient(baseURL, apiKey string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logger,
	}
}

func (c *Client) credentialsBody(username, password string) io.Reader {
	body := wire.Encode(wire.From(wire.NewObject().
		Set("username", wire.String(username)).
		Set("password", wire.String(password))))
	return bytes.NewBufferString(body)
}

func (c *Client) post(ctx context.Context, path, username, password string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, c.credentialsBody(username, password))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return c.http.Do(req)
}

// Register creates an account. Success is the status code; the backend
// returns no useful body here.
func (c *Client) Register(ctx context.Context, username, password string) error {
	resp, err := c.post(ctx, "/register", username, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("register: backend returned %s", resp.Status)
	}
	c.log.Info().Str("username", username).Msg("account registered")
	return nil
}

// Login authenticates and returns the backend-issued player id, which
// becomes the id announced over the game socket. An empty id with a nil
// error means the backend accepted the login but issued no id.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := c.post(ctx, "/login", username, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("login: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("login: backend returned %s", resp.Status)
	}
	playerID := wire.ScanString(string(body), "player_id")
	c.log.Info().Str("username", username).Str("player_id", playerID).Msg("logged in")
	return playerID, nil
}
