package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clipscholar/video-study-generator/internal/segment"
	"github.com/clipscholar/video-study-generator/internal/study"
	"github.com/clipscholar/video-study-generator/pkg/icron"
)

type generateRequest struct {
	TaskID  string        `json:"task_id"`
	Options study.Options `json:"options"`
}

func (s *Server) handleStudyMaterials(w http.ResponseWriter, r *http.Request) {
	// /api/videos/{id}/study-materials
	path := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	if !strings.HasSuffix(path, "/study-materials") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	videoID := strings.TrimSuffix(path, "/study-materials")
	videoID = strings.TrimSuffix(videoID, "/")
	if decoded, err := url.PathUnescape(videoID); err == nil {
		videoID = decoded
	}
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		materials, ok := s.svc.Cached(videoID, optionsFromQuery(r))
		if !ok {
			writeError(w, http.StatusNotFound, "no cached study materials for video")
			return
		}
		writeJSON(w, http.StatusOK, materials)
	case http.MethodPost:
		var req generateRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json body")
				return
			}
		}

		generate := s.svc.GenerateAll
		if r.URL.Query().Get("force") == "true" {
			generate = s.svc.Regenerate
		}
		materials, err := generate(r.Context(), videoID, req.TaskID, req.Options)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, materials)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// optionsFromQuery maps the cache-relevant query parameters so that a GET can
// address the same cache entry a prior POST populated.
func optionsFromQuery(r *http.Request) study.Options {
	q := r.URL.Query()
	opts := study.Options{Query: q.Get("query")}
	if n, err := strconv.Atoi(q.Get("max_hits")); err == nil {
		opts.MaxHits = n
	}
	if n, err := strconv.Atoi(q.Get("topics")); err == nil {
		opts.TopicsCount = n
	}
	return opts
}

type segmentWebhookRequest struct {
	VideoID  string                    `json:"video_id"`
	TaskID   string                    `json:"task_id"`
	Duration float64                   `json:"duration"`
	Segments []study.TranscriptSegment `json:"segments"`
	Generate bool                      `json:"generate"`
	Options  study.Options             `json:"options"`
}

type segmentWebhookResponse struct {
	Accepted  int                        `json:"accepted"`
	Rejected  int                        `json:"rejected"`
	Materials *study.TranscriptMaterials `json:"materials,omitempty"`
}

func (s *Server) handleSegmentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req segmentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "video_id is required")
		return
	}
	if len(req.Segments) == 0 {
		writeError(w, http.StatusBadRequest, "segments are required")
		return
	}

	ranges := make([]segment.Range, 0, len(req.Segments))
	for _, seg := range req.Segments {
		ranges = append(ranges, segment.Range{Start: seg.StartSec, End: seg.EndSec})
	}
	results := segment.ValidateAll(ranges, req.Duration, segment.DefaultMinLength)

	accepted := make([]study.TranscriptSegment, 0, len(req.Segments))
	for i, res := range results {
		if !res.Valid {
			continue
		}
		accepted = append(accepted, study.TranscriptSegment{
			StartSec: res.Start,
			EndSec:   res.End,
			Text:     req.Segments[i].Text,
		})
	}
	if len(accepted) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no valid segments after validation")
		return
	}

	resp := segmentWebhookResponse{
		Accepted: len(accepted),
		Rejected: len(req.Segments) - len(accepted),
	}

	if req.Generate {
		materials, err := s.svc.GenerateFromTranscript(r.Context(), accepted, req.Duration, req.Options)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		resp.Materials = materials
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.history.Recent(r.Context(), r.URL.Query().Get("video"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := map[string]any{
		"ok":            true,
		"cached_videos": s.svc.Cache().Len(),
	}
	if s.sweepCron != "" {
		if sched, err := icron.Describe(s.sweepCron, time.Now()); err == nil {
			resp["cache_sweep"] = sched
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
