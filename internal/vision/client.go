// Package vision analyzes clothing photos through the Wolfram Cloud
// endpoints that identify garment categories, pick a dominant color, and
// strip image backgrounds.
package vision

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shyammm53/wardrobe-backend/internal/colors"
	"github.com/shyammm53/wardrobe-backend/pkg/config"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

const (
	responseSnippetLimit = 500
	downloadBodyLimit    = 20 << 20
)

// Client calls the Wolfram Cloud analysis endpoints.
type Client struct {
	httpClient         *http.Client
	identifyEndpoint   string
	colorEndpoint      string
	backgroundEndpoint string
	removeBackground   bool
	logg               *logger.Logger
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

// NewClient builds the Wolfram client from configuration.
func NewClient(cfg config.WolframConfig, logg *logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		httpClient:         &http.Client{Timeout: timeout},
		identifyEndpoint:   strings.TrimSpace(cfg.IdentifyEndpoint),
		colorEndpoint:      strings.TrimSpace(cfg.ColorEndpoint),
		backgroundEndpoint: strings.TrimSpace(cfg.BackgroundEndpoint),
		removeBackground:   cfg.EnableBackgroundRemoval,
		logg:               logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// AnalyzeFromPath runs the full analysis pipeline against a local image.
// Background removal is attempted first but is best-effort: when it fails
// the original image is analyzed instead. Identify and color run
// concurrently and both must succeed.
func (c *Client) AnalyzeFromPath(ctx context.Context, imagePath string) (*types.AiTags, error) {
	if err := ensureReadable(imagePath); err != nil {
		return nil, err
	}

	workingPath := imagePath
	cleanupPath := ""

	processed, err := c.RemoveBackground(ctx, imagePath)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, "vision.background_removal_failed")
		}
	} else if processed != "" {
		workingPath = processed
		cleanupPath = processed
	}
	defer func() {
		if cleanupPath != "" {
			_ = os.Remove(cleanupPath)
		}
	}()

	var (
		identifyResult *identifyResult
		colorResult    *colorResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		identifyResult, err = c.identify(gctx, workingPath)
		return err
	})
	g.Go(func() error {
		var err error
		colorResult, err = c.dominantColor(gctx, workingPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tags := &types.AiTags{
		Status:     types.AiStatusComplete,
		Source:     "wolfram",
		AnalyzedAt: &now,
		Raw: map[string]any{
			"identify": identifyResult.raw,
			"color":    colorResult.raw,
		},
	}

	if len(identifyResult.categories) > 0 {
		tags.Categories = identifyResult.categories
		tags.PrimaryCategory = identifyResult.categories[0].Label
	}
	if colorResult.dominant != "" {
		tags.DominantColor = colorResult.dominant
		tags.Colors = colorResult.colors
	}

	return tags, nil
}

// AnalyzeFromURL downloads the image to a temp file, analyzes it, and
// removes the temp file regardless of outcome.
func (c *Client) AnalyzeFromURL(ctx context.Context, imageURL string) (*types.AiTags, error) {
	tempPath, err := c.downloadToTemp(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tempPath) }()

	return c.AnalyzeFromPath(ctx, tempPath)
}

// RemoveBackground sends the image through the Salient background removal
// model and writes the result to a temp file. It returns an empty path
// when the feature is disabled. Callers own the returned file.
func (c *Client) RemoveBackground(ctx context.Context, imagePath string) (string, error) {
	if !c.removeBackground {
		return "", nil
	}
	if c.backgroundEndpoint == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "background removal endpoint is not configured")
	}

	body, contentType, err := imageForm(imagePath, map[string]string{
		"model":   "Salient",
		"quality": "Standard",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backgroundEndpoint, body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build background removal request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute background removal request")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, downloadBodyLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read background removal response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("background removal failed with status %d", resp.StatusCode)).
			WithDetails(snippet(payload))
	}
	if len(payload) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "background removal returned an empty file")
	}

	return writeTemp("wardrobe-ai-bg-", payload, fileExtension(resp.Header.Get("Content-Type"), imagePath))
}

type identifyResult struct {
	categories []types.AiCategory
	raw        map[string]any
}

// identify posts the image to the ImageIdentify endpoint. The response is
// a flat label-to-confidence object; categories come back sorted by
// descending confidence.
func (c *Client) identify(ctx context.Context, imagePath string) (*identifyResult, error) {
	if c.identifyEndpoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identify endpoint is not configured")
	}

	text, err := c.postImage(ctx, c.identifyEndpoint, imagePath, nil, "identify")
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse identify response").
			WithDetails(snippet([]byte(text)))
	}

	categories := make([]types.AiCategory, 0, len(data))
	for label, value := range data {
		confidence, ok := value.(float64)
		if !ok {
			continue
		}
		categories = append(categories, types.AiCategory{Label: label, Confidence: confidence})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Confidence > categories[j].Confidence
	})

	return &identifyResult{categories: categories, raw: data}, nil
}

type colorResult struct {
	dominant string
	colors   []types.AiColor
	raw      string
}

// dominantColor posts the image to the color endpoint and classifies the
// returned RGBColor literal.
func (c *Client) dominantColor(ctx context.Context, imagePath string) (*colorResult, error) {
	if c.colorEndpoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "color endpoint is not configured")
	}

	text, err := c.postImage(ctx, c.colorEndpoint, imagePath, map[string]string{"numColors": "5"}, "color analysis")
	if err != nil {
		return nil, err
	}

	rgb, ok := ParseRGBLiteral(text)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unable to extract RGB values from color response").
			WithDetails(snippet([]byte(text)))
	}

	described := colors.Describe(rgb)
	described.Hex = "#" + described.Hex
	return &colorResult{
		dominant: described.Name,
		colors:   []types.AiColor{described},
		raw:      text,
	}, nil
}

func (c *Client) postImage(ctx context.Context, endpoint, imagePath string, fields map[string]string, label string) (string, error) {
	body, contentType, err := imageForm(imagePath, fields)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+label+" request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+label+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+label+" response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s request failed with status %d", label, resp.StatusCode)).
			WithDetails(snippet(payload))
	}

	return string(payload), nil
}

func (c *Client) downloadToTemp(ctx context.Context, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image url")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "download image")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("failed to download image with status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, downloadBodyLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image download")
	}
	if len(payload) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "downloaded image is empty")
	}

	return writeTemp("wardrobe-ai-", payload, fileExtension(resp.Header.Get("Content-Type"), imageURL))
}

func ensureReadable(imagePath string) error {
	if strings.TrimSpace(imagePath) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image path is required")
	}
	f, err := os.Open(imagePath)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "image file could not be read")
	}
	_ = f.Close()
	return nil
}

func imageForm(imagePath string, fields map[string]string) (io.Reader, string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "image file could not be read")
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create multipart form")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy image into form")
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write form field")
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize multipart form")
	}

	return &buf, writer.FormDataContentType(), nil
}

func writeTemp(prefix string, payload []byte, ext string) (string, error) {
	name := fmt.Sprintf("%s%d-%s%s", prefix, time.Now().UnixMilli(), randomHex(6), ext)
	tempPath := filepath.Join(os.TempDir(), name)
	if err := os.WriteFile(tempPath, payload, 0o600); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write temp image")
	}
	return tempPath, nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// fileExtension picks a temp-file extension from the content type, then
// the source path or URL, then a generic fallback.
func fileExtension(contentType, source string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "gif"):
		return ".gif"
	case strings.Contains(ct, "webp"):
		return ".webp"
	case strings.Contains(ct, "bmp"):
		return ".bmp"
	case strings.Contains(ct, "svg"):
		return ".svg"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	}

	if parsed, err := url.Parse(source); err == nil {
		if ext := filepath.Ext(parsed.Path); ext != "" {
			return ext
		}
	} else if ext := filepath.Ext(source); ext != "" {
		return ext
	}

	return ".img"
}

func snippet(payload []byte) string {
	if len(payload) > responseSnippetLimit {
		payload = payload[:responseSnippetLimit]
	}
	return string(payload)
}
