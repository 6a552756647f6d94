// Package genai wraps the Gemini generateContent API with model fallback.
// When a model returns 400 or 404 the client walks a candidate list until
// one responds; any other failure is surfaced immediately.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shyammm53/wardrobe-backend/pkg/config"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

const defaultModel = "gemini-2.0-flash"

var fallbackModels = []string{
	"gemini-2.0-flash-lite",
	"gemini-2.0-pro",
	"gemini-1.5-pro-latest",
	"gemini-1.5-flash-002",
	"gemini-1.5-flash-001",
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the Gemini client from configuration. A missing API key
// is allowed here so the server can boot without AI features; Generate
// reports the misconfiguration per call.
func NewClient(cfg config.GeminiConfig, logg *logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		logg:       logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// GenerationConfig tunes sampling for a single request. Zero values fall
// back to the defaults the prompts were written against.
type GenerationConfig struct {
	Model           string  `json:"-"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GenerateInput is one prompt exchange.
type GenerateInput struct {
	SystemPrompt string
	UserPrompt   string
	Config       GenerationConfig
}

// GenerateResult carries the text of the first successful model plus a
// best-effort JSON decode of that text.
type GenerateResult struct {
	Text   string
	Parsed map[string]any
	Model  string
	Raw    map[string]any
}

type generatePayload struct {
	Contents          []payloadContent `json:"contents"`
	GenerationConfig  map[string]any   `json:"generationConfig"`
	SystemInstruction *payloadContent  `json:"systemInstruction,omitempty"`
}

type payloadContent struct {
	Role  string        `json:"role,omitempty"`
	Parts []payloadPart `json:"parts"`
}

type payloadPart struct {
	Text string `json:"text"`
}

// Generate tries each candidate model in order and returns the first
// success. Candidate order is request override, configured model, the
// package default, then the fallback list, deduplicated.
func (c *Client) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gemini client not configured")
	}
	if c.apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gemini api key is not configured")
	}
	if strings.TrimSpace(in.UserPrompt) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user prompt is required")
	}

	var lastErr error
	for _, model := range c.candidateModels(in.Config.Model) {
		result, err := c.generateWithModel(ctx, normalizeModelID(model), in)
		if err == nil {
			return result, nil
		}
		if !isModelRetryable(err) {
			return nil, err
		}
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "model", model), "genai.model_unavailable")
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = pkgerrors.New(pkgerrors.CodeDependency, "no supported gemini models responded")
	}
	return nil, lastErr
}

func (c *Client) candidateModels(requested string) []string {
	ordered := []string{strings.TrimSpace(requested), c.model, defaultModel}
	ordered = append(ordered, fallbackModels...)

	seen := make(map[string]bool, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, m := range ordered {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (c *Client) generateWithModel(ctx context.Context, model string, in GenerateInput) (*GenerateResult, error) {
	payload := generatePayload{
		Contents: []payloadContent{
			{Role: "user", Parts: []payloadPart{{Text: in.UserPrompt}}},
		},
		GenerationConfig: generationConfigMap(in.Config),
	}
	if sys := strings.TrimSpace(in.SystemPrompt); sys != "" {
		payload.SystemInstruction = &payloadContent{Parts: []payloadPart{{Text: sys}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal generate request")
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute generate request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var data map[string]any
	_ = json.Unmarshal(raw, &data)

	if resp.StatusCode != http.StatusOK {
		message := apiErrorMessage(data)
		if message == "" {
			message = fmt.Sprintf("gemini request failed with status %d", resp.StatusCode)
		}
		err := pkgerrors.New(pkgerrors.CodeDependency, message)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
			return nil, &modelUnavailableError{err: err}
		}
		return nil, err
	}

	text := extractText(data)
	return &GenerateResult{
		Text:   text,
		Parsed: ExtractJSON(text),
		Model:  model,
		Raw:    data,
	}, nil
}

func generationConfigMap(cfg GenerationConfig) map[string]any {
	out := map[string]any{
		"temperature":     0.8,
		"topP":            0.9,
		"topK":            32,
		"maxOutputTokens": 1024,
	}
	if cfg.Temperature > 0 {
		out["temperature"] = cfg.Temperature
	}
	if cfg.TopP > 0 {
		out["topP"] = cfg.TopP
	}
	if cfg.TopK > 0 {
		out["topK"] = cfg.TopK
	}
	if cfg.MaxOutputTokens > 0 {
		out["maxOutputTokens"] = cfg.MaxOutputTokens
	}
	return out
}

// modelUnavailableError marks failures worth retrying on the next
// candidate model.
type modelUnavailableError struct {
	err error
}

func (e *modelUnavailableError) Error() string { return e.err.Error() }
func (e *modelUnavailableError) Unwrap() error { return e.err }

func isModelRetryable(err error) bool {
	var unavailable *modelUnavailableError
	return errors.As(err, &unavailable)
}

func normalizeModelID(model string) string {
	if model == "" || strings.Contains(model, "/") {
		return model
	}
	return "models/" + model
}

func apiErrorMessage(data map[string]any) string {
	errObj, ok := data["error"].(map[string]any)
	if !ok {
		return ""
	}
	message, _ := errObj["message"].(string)
	return message
}

func extractText(data map[string]any) string {
	candidates, ok := data["candidates"].([]any)
	if !ok {
		return ""
	}

	var parts []string
	for _, cand := range candidates {
		candMap, ok := cand.(map[string]any)
		if !ok {
			continue
		}
		content, ok := candMap["content"].(map[string]any)
		if !ok {
			continue
		}
		rawParts, ok := content["parts"].([]any)
		if !ok {
			continue
		}
		for _, part := range rawParts {
			partMap, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := partMap["text"].(string); ok && text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ExtractJSON decodes model output as a JSON object. If the whole text is
// not valid JSON it falls back to the widest brace-delimited substring,
// which tolerates markdown fences and prose around the payload.
func ExtractJSON(text string) map[string]any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return nil
	}
	return parsed
}
