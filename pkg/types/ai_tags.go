package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AiStatus tracks where an item sits in the enrichment lifecycle.
// Uploads start at processing and move forward to complete or failed;
// idle marks a record with no enrichment attempt on it.
type AiStatus string

const (
	AiStatusIdle       AiStatus = "idle"
	AiStatusProcessing AiStatus = "processing"
	AiStatusComplete   AiStatus = "complete"
	AiStatusFailed     AiStatus = "failed"
)

func (s AiStatus) IsValid() bool {
	switch s {
	case AiStatusIdle, AiStatusProcessing, AiStatusComplete, AiStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status can no longer change.
func (s AiStatus) IsTerminal() bool {
	return s == AiStatusComplete || s == AiStatusFailed
}

// RGB is an 8-bit-per-channel color triple.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// AiColor is one detected color with its human-readable classification.
type AiColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
	RGB  RGB    `json:"rgb"`
}

// AiCategory is one classification label with its confidence score.
type AiCategory struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// AiTags is the enrichment result stored on a clothing item as JSONB.
type AiTags struct {
	Status          AiStatus       `json:"status"`
	Source          string         `json:"source,omitempty"`
	AnalyzedAt      *time.Time     `json:"analyzed_at,omitempty"`
	PrimaryCategory string         `json:"primary_category,omitempty"`
	Categories      []AiCategory   `json:"categories,omitempty"`
	DominantColor   string         `json:"dominant_color,omitempty"`
	Colors          []AiColor      `json:"colors,omitempty"`
	Error           string         `json:"error,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
}

// Sanitized returns a copy safe for API responses: provider payloads are
// kept for diagnostics in the database but never exposed externally.
func (t *AiTags) Sanitized() *AiTags {
	if t == nil {
		return nil
	}
	clean := *t
	clean.Raw = nil
	return &clean
}

// Value marshals AiTags to JSON for storage.
func (t AiTags) Value() (driver.Value, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("ai tags: marshal: %w", err)
	}
	return string(data), nil
}

// Scan decodes the stored JSON document.
func (t *AiTags) Scan(value any) error {
	if value == nil {
		*t = AiTags{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("ai tags: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, t)
}

// UserTags is a manual override for AI-derived category/color.
type UserTags struct {
	PrimaryCategory string     `json:"primary_category,omitempty"`
	DominantColor   string     `json:"dominant_color,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func (t UserTags) Value() (driver.Value, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("user tags: marshal: %w", err)
	}
	return string(data), nil
}

func (t *UserTags) Scan(value any) error {
	if value == nil {
		*t = UserTags{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("user tags: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, t)
}

func toBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
