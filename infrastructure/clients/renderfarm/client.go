package renderfarm

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

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
)

const (
	defaultUserAgent = "youtube-card/1.0"
	requestTimeout   = 15 * time.Second
	maxErrorBody     = 4 << 10
)

// Client talks to the render farm HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
}

var _ repository.IRenderCollaborator = (*Client)(nil)

// NewClient builds a Client for baseURL. An empty apiKey sends no Authorization header.
func NewClient(baseURL, apiKey string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		apiKey:    apiKey,
		userAgent: defaultUserAgent,
	}, nil
}

// progressResponse is the farm's status report.
type progressResponse struct {
	Done                  bool    `json:"done"`
	FatalErrorEncountered bool    `json:"fatalErrorEncountered"`
	OverallProgress       float64 `json:"overallProgress"`
	OutputFile            string  `json:"outputFile"`
	OutputSizeInBytes     int64   `json:"outputSizeInBytes"`
	Errors                []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// StartRender submits one export and returns the farm's handle for it.
func (c *Client) StartRender(ctx context.Context, input repository.RenderInput) (*repository.RenderHandle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var handle repository.RenderHandle
	if err := c.do(ctx, http.MethodPost, "/renders", input, &handle); err != nil {
		return nil, err
	}
	if handle.RenderID == "" || handle.BucketName == "" {
		return nil, fmt.Errorf("render farm returned an incomplete handle")
	}
	return &handle, nil
}

// GetProgress asks for the current state of a render.
func (c *Client) GetProgress(ctx context.Context, bucketName, renderID string) (*model.RenderSnapshot, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path := "/renders/" + bucketName + "/" + renderID
	var payload progressResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	snapshot := &model.RenderSnapshot{
		Done:            payload.Done,
		Fatal:           payload.FatalErrorEncountered,
		OverallProgress: payload.OverallProgress,
		OutputURL:       payload.OutputFile,
		OutputSize:      payload.OutputSizeInBytes,
	}
	if snapshot.Fatal {
		snapshot.ErrorMessage = "render failed"
		if len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
			snapshot.ErrorMessage = payload.Errors[0].Message
		}
	}
	return snapshot, nil
}

// StatusError is a non-2xx answer from the farm.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("render farm %s returned status %d: %s", e.Path, e.Status, e.Body)
}

// NotFound reports whether the farm does not know the render.
func (e *StatusError) NotFound() bool { return e.Status == http.StatusNotFound }

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimSuffix(c.baseURL.Path, "/") + path})

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("render farm base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse render farm url %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
