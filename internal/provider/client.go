// Package provider talks to the upstream image generation API. Two wire
// shapes are supported: the legacy "api1" endpoint and the OpenAI-compatible
// "api2" endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

type Provider string

const (
	Legacy Provider = "api1"
	OpenAI Provider = "api2"
)

// ParseProvider maps the request selector to a Provider. Empty means Legacy.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.TrimSpace(s)) {
	case "", Legacy:
		return Legacy, nil
	case OpenAI:
		return OpenAI, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

var (
	ErrNoData             = errors.New("upstream API returned no data")
	ErrUnsupportedFormat  = errors.New("unsupported upstream response format")
	ErrMissingCredentials = errors.New("upstream API key is not configured")
)

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

type Params struct {
	Prompt         string
	Model          string
	Width          int
	Height         int
	NegativePrompt string
	NImages        *int
	NumSteps       *int
	Resolution     string
	SamplerName    string
	Scale          *float64
	Seed           *int64
	ImageDataURL   string
	ImageDataURLs  []string
	MaskDataURL    string
	KontextMaxMode *bool
	ResponseFormat string
}

// Result is a decoded image plus the untouched upstream body.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Raw         json.RawMessage
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate submits one request to the upstream API and decodes the image it
// returns. It never retries.
func (c *Client) Generate(ctx context.Context, p Provider, params Params) (*Result, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	w, ok := wires[p]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", p)
	}

	jsonData, err := json.Marshal(w.body(&params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+w.path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	w.auth(req, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	slog.Debug("upstream generate", "provider", string(p), "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, decode := range decoders {
		res, matched, err := decode(ctx, c, &env)
		if !matched {
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Raw = json.RawMessage(body)
		return res, nil
	}
	return nil, ErrUnsupportedFormat
}

type envelope struct {
	Image *string     `json:"image"`
	Data  *[]dataItem `json:"data"`
}

type dataItem struct {
	B64JSON string `json:"b64_json"`
	URL     string `json:"url"`
}

// decoders are tried in order; the first one that recognises the shape wins.
var decoders = []func(ctx context.Context, c *Client, env *envelope) (*Result, bool, error){
	decodeLegacy,
	decodeVersioned,
}

var dataURIHeader = regexp.MustCompile(`(?i)^data:(.*?);base64$`)

func decodeLegacy(ctx context.Context, c *Client, env *envelope) (*Result, bool, error) {
	if env.Image == nil || *env.Image == "" {
		return nil, false, nil
	}
	image := *env.Image

	if !strings.HasPrefix(image, "data:") {
		res, err := c.fetch(ctx, image)
		return res, true, err
	}

	meta, payload, _ := strings.Cut(image, ",")
	contentType := "image/png"
	if m := dataURIHeader.FindStringSubmatch(meta); m != nil && m[1] != "" {
		contentType = m[1]
	}
	ext := "png"
	if strings.Contains(contentType, "jpeg") {
		ext = "jpg"
	} else if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = strings.ToLower(sub)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, true, fmt.Errorf("failed to decode image data: %w", err)
	}
	return &Result{Data: data, ContentType: contentType, Extension: ext}, true, nil
}

func decodeVersioned(ctx context.Context, c *Client, env *envelope) (*Result, bool, error) {
	if env.Data == nil {
		return nil, false, nil
	}
	items := *env.Data
	if len(items) == 0 {
		return nil, true, ErrNoData
	}

	first := items[0]
	switch {
	case first.B64JSON != "":
		data, err := decodeBase64(first.B64JSON)
		if err != nil {
			return nil, true, fmt.Errorf("failed to decode image data: %w", err)
		}
		return &Result{Data: data, ContentType: "image/png", Extension: "png"}, true, nil
	case first.URL != "":
		res, err := c.fetch(ctx, first.URL)
		return res, true, err
	default:
		return nil, true, ErrUnsupportedFormat
	}
}

// fetch downloads an image the upstream returned by reference.
func (c *Client) fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "image/png"
	}
	return &Result{Data: data, ContentType: contentType, Extension: extensionFor(contentType, rawURL)}, nil
}

func extensionFor(contentType, rawURL string) string {
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "png"
	}
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")); ext != "" {
		return ext
	}
	return "png"
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
