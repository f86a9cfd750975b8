package domain

import (
	"fmt"
	"strings"
)

// PredictionInput is the tool payload a client submits with a job. The file
// itself is referenced by URL; the server never proxies media bytes.
type PredictionInput struct {
	FileURL   string         `json:"file_url"`
	MIME      string         `json:"mime"`
	SizeBytes int64          `json:"size_bytes"`
	Options   map[string]any `json:"options,omitempty"`
}

// ModelSpec describes one selectable model: its credit cost and the
// tool-specific input constraints enforced before any debit happens.
type ModelSpec struct {
	ID          string
	CreditCost  int
	AllowedMIME []string
	MaxBytes    int64
}

// Accepts reports whether the MIME type is allowed for this model.
func (m ModelSpec) Accepts(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, allowed := range m.AllowedMIME {
		if mime == allowed {
			return true
		}
	}
	return false
}

// ValidateInput checks the payload against the model's constraints. All
// violations wrap ErrInvalidInput so handlers can map them to one status.
func (m ModelSpec) ValidateInput(in PredictionInput) error {
	if strings.TrimSpace(in.FileURL) == "" {
		return fmt.Errorf("%w: file_url is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(in.FileURL, "http://") && !strings.HasPrefix(in.FileURL, "https://") {
		return fmt.Errorf("%w: file_url must be an http(s) url", ErrInvalidInput)
	}
	if !m.Accepts(in.MIME) {
		return fmt.Errorf("%w: mime %q not supported by model %s", ErrInvalidInput, in.MIME, m.ID)
	}
	if in.SizeBytes <= 0 {
		return fmt.Errorf("%w: size_bytes is required", ErrInvalidInput)
	}
	if m.MaxBytes > 0 && in.SizeBytes > m.MaxBytes {
		return fmt.Errorf("%w: file exceeds %d byte limit", ErrInvalidInput, m.MaxBytes)
	}
	return nil
}

// DefaultModels is the built-in model catalog.
func DefaultModels() map[string]ModelSpec {
	imageMIME := []string{"image/png", "image/jpeg", "image/webp"}
	videoMIME := []string{"video/mp4", "video/quicktime"}
	return map[string]ModelSpec{
		"image-compress": {
			ID:          "image-compress",
			CreditCost:  2,
			AllowedMIME: imageMIME,
			MaxBytes:    25 * 1024 * 1024,
		},
		"image-upscale": {
			ID:          "image-upscale",
			CreditCost:  4,
			AllowedMIME: imageMIME,
			MaxBytes:    25 * 1024 * 1024,
		},
		"image-preview": {
			ID:          "image-preview",
			CreditCost:  0,
			AllowedMIME: imageMIME,
			MaxBytes:    5 * 1024 * 1024,
		},
		"video-enhance": {
			ID:          "video-enhance",
			CreditCost:  10,
			AllowedMIME: videoMIME,
			MaxBytes:    200 * 1024 * 1024,
		},
	}
}
