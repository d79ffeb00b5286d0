package search

import "context"

// Scope identifies which embedding modality produced a hit.
type Scope string

const (
	ScopeVisual Scope = "visual"
	ScopeAudio  Scope = "audio"
	ScopeMixed  Scope = "mixed"
)

// Hit is a single time-stamped match returned by the video-intelligence
// search capability. Hits are immutable once created and are not persisted.
type Hit struct {
	VideoID    string  `json:"video_id"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
	Scope      Scope   `json:"embedding_scope"`
	DeepLink   string  `json:"deep_link,omitempty"`
}

// Searcher is the video search capability consumed by the pipeline.
// Implementations may fail on invalid video/task identifiers.
type Searcher interface {
	Search(ctx context.Context, videoID, taskID, query string, limit int) ([]Hit, error)
}
