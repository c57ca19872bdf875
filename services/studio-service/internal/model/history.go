package model

import "time"

// GenerationType names an AI operation. Only the four constants below are processed.
type GenerationType string

const (
	TypeImageGeneration GenerationType = "image-generation"
	Type4KUpscale       GenerationType = "4k-upscale"
	TypeBeautyFilter    GenerationType = "beauty-filter"
	TypeVideoFilter     GenerationType = "video-filter"
)

// IsVideo reports whether the type is handled by the external video processor.
func (t GenerationType) IsVideo() bool {
	switch t {
	case Type4KUpscale, TypeBeautyFilter, TypeVideoFilter:
		return true
	}
	return false
}

// HistoryEntry is the immutable record of one completed AI operation.
type HistoryEntry struct {
	ID        string         `json:"_id"`
	UserID    string         `json:"user"`
	Type      GenerationType `json:"type"`
	Prompt    *string        `json:"prompt,omitempty"`
	ResultURL string         `json:"resultUrl"`
	CreatedAt time.Time      `json:"createdAt"`
}
