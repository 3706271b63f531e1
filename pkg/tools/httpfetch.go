package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFetchTimeout     = 300 * time.Second
	maxFetchBody        = 10 * 1024 * 1024
	fetchUserAgent      = "aruna/1.0"
)

// HTTPFetch performs HTTP requests on behalf of the model. Local and
// private addresses are rejected.
type HTTPFetch struct {
	// Client overrides the default client, mainly for tests.
	Client *http.Client
}

func (h *HTTPFetch) Name() string { return "http_fetch" }

func (h *HTTPFetch) Description() string {
	return "Make HTTP requests to fetch data from URLs. Supports GET, POST, PUT, DELETE methods with custom headers and body."
}

func (h *HTTPFetch) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to fetch (must be http:// or https://)",
			},
			"method": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "HEAD", "PATCH"},
				"description": "HTTP method to use (default: GET)",
			},
			"headers": map[string]interface{}{
				"type":                 "object",
				"description":          "Optional headers as key-value pairs",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
			"body": map[string]interface{}{
				"type":        "string",
				"description": "Optional request body (for POST, PUT, PATCH)",
			},
			"timeout_seconds": map[string]interface{}{
				"type":        "integer",
				"description": "Request timeout in seconds (default: 30, max: 300)",
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}

type fetchResponse struct {
	Status        int               `json:"status"`
	Headers       map[string]string `json:"headers"`
	Body          string            `json:"body"`
	ContentType   string            `json:"content_type,omitempty"`
	ContentLength int               `json:"content_length"`
}

func (h *HTTPFetch) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		URL            string            `json:"url"`
		Method         string            `json:"method"`
		Headers        map[string]string `json:"headers"`
		Body           string            `json:"body"`
		TimeoutSeconds int               `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input parameters: %w. Example: {\"url\": \"https://api.example.com/data\", \"method\": \"GET\"}", err)
	}

	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return "", fmt.Errorf("URL must start with http:// or https://. Example: {\"url\": \"https://api.example.com/data\"}")
	}
	parsed, err := url.Parse(in.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if isLocalHost(parsed.Hostname()) {
		return "", fmt.Errorf("access to local addresses is not allowed. Use external URLs like https://api.example.com")
	}

	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead, http.MethodPatch:
	default:
		return "", fmt.Errorf("unsupported HTTP method: %s. Supported methods: GET, POST, PUT, DELETE, HEAD, PATCH", method)
	}

	timeout := defaultFetchTimeout
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
		if timeout > maxFetchTimeout {
			timeout = maxFetchTimeout
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in.Body != "" && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		body = strings.NewReader(in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, in.URL, body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	for key, value := range in.Headers {
		lower := strings.ToLower(key)
		if lower == "host" || lower == "content-length" {
			continue
		}
		req.Header.Set(key, value)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxFetchBody {
		return "", fmt.Errorf("response body too large (>10MB)")
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	out, err := json.MarshalIndent(fetchResponse{
		Status:        resp.StatusCode,
		Headers:       headers,
		Body:          string(data),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: len(data),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize response: %w", err)
	}
	return string(out), nil
}

func isLocalHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	return strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "172.")
}
