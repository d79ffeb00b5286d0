package study

import (
	"context"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/clipscholar/video-study-generator/internal/llm"
	"github.com/clipscholar/video-study-generator/internal/search"
	"github.com/clipscholar/video-study-generator/pkg/log"
)

// Strategy names recorded in the generation history.
const (
	StrategyChain      = "chain"
	StrategyUnified    = "unified"
	StrategyTranscript = "transcript"
)

// RunRecord captures one finished generation run for the history log.
type RunRecord struct {
	RunID          string
	VideoID        string
	Strategy       string
	TopicCount     int
	FlashcardCount int
	QuizCount      int
	DurationMS     int64
	Error          string
}

// Recorder persists finished generation runs. Recording is best effort; a
// failing recorder never fails a generation.
type Recorder interface {
	Append(ctx context.Context, rec RunRecord) error
}

// Service orchestrates study material generation: fusion, context assembly,
// generation, validation and caching. Thread-safe for concurrent use.
type Service struct {
	fuser      *search.Fuser
	gen        llm.Generator
	cache      *GenerationCache
	recorder   Recorder
	defaults   Options
	targetLang language.Tag
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache replaces the default generation cache.
func WithCache(cache *GenerationCache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithRecorder attaches a run history recorder.
func WithRecorder(rec Recorder) ServiceOption {
	return func(s *Service) { s.recorder = rec }
}

// WithDefaultOptions sets service-wide fallbacks applied to request options
// before the built-in defaults.
func WithDefaultOptions(defaults Options) ServiceOption {
	return func(s *Service) { s.defaults = defaults }
}

// WithTargetLanguage asks the generator to produce material in the given
// language instead of the source language of the video.
func WithTargetLanguage(tag language.Tag) ServiceOption {
	return func(s *Service) { s.targetLang = tag }
}

func NewService(fuser *search.Fuser, gen llm.Generator, opts ...ServiceOption) *Service {
	s := &Service{
		fuser: fuser,
		gen:   gen,
		cache: NewGenerationCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAll returns the full study material set for a video, serving a
// cached result when one is fresh and deduplicating concurrent requests for
// the same video and options.
func (s *Service) GenerateAll(ctx context.Context, videoID, taskID string, opts Options) (*StudyMaterials, error) {
	opts = s.resolve(opts)
	return s.cache.GetOrGenerate(ctx, opts.cacheKey(videoID), func(genCtx context.Context) (*StudyMaterials, error) {
		return s.runChain(genCtx, videoID, taskID, opts)
	})
}

// Regenerate forces a fresh generation, bypassing the TTL. Within the refresh
// cooldown the cached result is returned instead.
func (s *Service) Regenerate(ctx context.Context, videoID, taskID string, opts Options) (*StudyMaterials, error) {
	opts = s.resolve(opts)
	return s.cache.Refresh(ctx, opts.cacheKey(videoID), func(genCtx context.Context) (*StudyMaterials, error) {
		return s.runChain(genCtx, videoID, taskID, opts)
	})
}

// Cached returns the cached result for a video without generating.
func (s *Service) Cached(videoID string, opts Options) (*StudyMaterials, bool) {
	opts = s.resolve(opts)
	return s.cache.Peek(opts.cacheKey(videoID))
}

// resolve layers the service-wide default options under the request options,
// then applies the built-in defaults.
func (s *Service) resolve(o Options) Options {
	if o.Query == "" {
		o.Query = s.defaults.Query
	}
	if o.MaxHits <= 0 {
		o.MaxHits = s.defaults.MaxHits
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = s.defaults.MaxContextChars
	}
	if o.SummaryLength == "" {
		o.SummaryLength = s.defaults.SummaryLength
	}
	if o.SummaryTone == "" {
		o.SummaryTone = s.defaults.SummaryTone
	}
	if o.TopicsCount <= 0 {
		o.TopicsCount = s.defaults.TopicsCount
	}
	if o.FlashcardsPerTopic <= 0 {
		o.FlashcardsPerTopic = s.defaults.FlashcardsPerTopic
	}
	if o.QuizPerTopic <= 0 {
		o.QuizPerTopic = s.defaults.QuizPerTopic
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = s.defaults.MaxRetries
	}
	return o.withDefaults()
}

// Cache exposes the generation cache for periodic sweeping.
func (s *Service) Cache() *GenerationCache {
	return s.cache
}

func (s *Service) runChain(ctx context.Context, videoID, taskID string, opts Options) (*StudyMaterials, error) {
	started := time.Now()
	materials, err := s.generateChain(ctx, videoID, taskID, opts)
	if err != nil {
		s.record(ctx, videoID, StrategyChain, nil, started, err)
		return nil, err
	}

	materials.Language = languageHint(materials.Summary)
	s.record(ctx, videoID, StrategyChain, materials, started, nil)
	return materials, nil
}

func (s *Service) record(ctx context.Context, videoID, strategy string, materials *StudyMaterials, started time.Time, genErr error) {
	if s.recorder == nil {
		return
	}

	rec := RunRecord{
		RunID:      uuid.NewString(),
		VideoID:    videoID,
		Strategy:   strategy,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if genErr != nil {
		rec.Error = genErr.Error()
	}
	if materials != nil {
		rec.TopicCount = len(materials.Topics)
		for _, cards := range materials.FlashcardsByTopic {
			rec.FlashcardCount += len(cards)
		}
		for _, quiz := range materials.QuizByTopic {
			rec.QuizCount += len(quiz)
		}
	}

	if err := s.recorder.Append(ctx, rec); err != nil {
		log.Warn("Recording generation run %s for video %s failed: %v", rec.RunID, videoID, err)
	}
}

// languageDirective asks the model to answer in the configured target
// language. Empty when no target is set.
func (s *Service) languageDirective() string {
	if s.targetLang == language.Und {
		return ""
	}
	name := display.English.Tags().Name(s.targetLang)
	if name == "" {
		return ""
	}
	return "Write all generated content in " + name + "."
}

// systemPrompt appends the language directive to a strategy's system message.
func (s *Service) systemPrompt(base string) string {
	if d := s.languageDirective(); d != "" {
		return base + " " + d
	}
	return base
}

// languageHint names the detected language of generated text in English, e.g.
// "Spanish". Empty when detection is unreliable.
func languageHint(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return ""
	}
	tag := language.All.Make(code)
	return display.English.Tags().Name(tag)
}
