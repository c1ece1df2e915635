package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransportError is returned when the agent responds with a non-success
// status. It is the only hard failure in the forge path; everything after a
// successful response degrades gracefully through the parser chain.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("agent request failed with status %d", e.Status)
}

// AgentClient sends a free-text instruction to the text-generation agent and
// returns its raw response body.
type AgentClient interface {
	Generate(ctx context.Context, message string) (string, error)
}

// ImageClient asks the image-generation service for an illustration.
type ImageClient interface {
	GenerateImage(ctx context.Context, title, description string) (string, error)
}

// ClientConfig carries the connection settings shared by both HTTP clients.
type ClientConfig struct {
	Endpoint string
	APIKey   string
	OrgID    string
	UserID   string
	Timeout  time.Duration
}

// HTTPAgentClient talks to the agent over its single POST endpoint.
type HTTPAgentClient struct {
	cfg    ClientConfig
	client *http.Client
}

// NewHTTPAgentClient builds a client with sane defaults for the optional
// config fields.
func NewHTTPAgentClient(cfg ClientConfig) *HTTPAgentClient {
	if cfg.OrgID == "" {
		cfg.OrgID = "anonymous-org"
	}
	if cfg.UserID == "" {
		cfg.UserID = "anonymous-user"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPAgentClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type agentRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// Generate implements AgentClient.
func (c *HTTPAgentClient) Generate(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(agentRequest{Message: message, UserID: "anonymous"})
	if err != nil {
		return "", fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("org-id", c.cfg.OrgID)
	req.Header.Set("user-id", c.cfg.UserID)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call agent: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{Status: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}

// HTTPImageClient talks to the image-generation service.
type HTTPImageClient struct {
	cfg    ClientConfig
	client *http.Client
}

// NewHTTPImageClient builds an image client.
func NewHTTPImageClient(cfg ClientConfig) *HTTPImageClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPImageClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type imageRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// GenerateImage implements ImageClient. The service answers with a JSON body
// carrying an imageUrl field.
func (c *HTTPImageClient) GenerateImage(ctx context.Context, title, description string) (string, error) {
	body, err := json.Marshal(imageRequest{Title: title, Description: description})
	if err != nil {
		return "", fmt.Errorf("encode image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call image service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if parsed.ImageURL == "" {
		return "", fmt.Errorf("image service returned no imageUrl")
	}
	return parsed.ImageURL, nil
}
