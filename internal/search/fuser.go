package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/clipscholar/video-study-generator/pkg/log"
)

// coverageQueries is the fixed battery used when no explicit query is given.
// It samples overview, terminology, procedural and visual content so that the
// fused hit list covers the whole lecture rather than one theme.
var coverageQueries = []string{
	"overview of the main ideas and structure",
	"key concepts, terms and definitions",
	"formulas, procedures and worked examples",
	"graphics, diagrams and visual explanations",
}

// Fuser merges hits from one or more queries into a single ranked,
// deduplicated list.
type Fuser struct {
	searcher Searcher
}

func NewFuser(searcher Searcher) *Fuser {
	return &Fuser{searcher: searcher}
}

// Fuse produces at most maxHits unique hits for a video. With an explicit
// query it forwards the query verbatim and trusts the capability's own
// ranking. Without one it runs the coverage battery concurrently, merges the
// results, deduplicates by rounded time window (first occurrence wins) and
// ranks by confidence.
//
// A single coverage query failing contributes an empty result set; only a
// misconfigured capability aborts fusion.
func (f *Fuser) Fuse(ctx context.Context, videoID, taskID, query string, maxHits int) ([]Hit, error) {
	if maxHits <= 0 {
		return nil, fmt.Errorf("maxHits must be greater than 0")
	}

	if query != "" {
		hits, err := f.searcher.Search(ctx, videoID, taskID, query, maxHits)
		if err != nil {
			return nil, fmt.Errorf("search failed for query %q: %w", query, err)
		}
		return hits, nil
	}

	perQueryCap := int(math.Ceil(float64(maxHits) / float64(len(coverageQueries))))
	resultSets := make([][]Hit, len(coverageQueries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range coverageQueries {
		i, q := i, q
		g.Go(func() error {
			hits, err := f.searcher.Search(gctx, videoID, taskID, q, perQueryCap)
			if err != nil {
				if errors.Is(err, ErrMisconfigured) {
					return err
				}
				log.Warn("Coverage query %q failed for video %s: %v", q, videoID, err)
				return nil
			}
			resultSets[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("coverage search failed: %w", err)
	}

	merged := mergeHits(resultSets)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].StartSec < merged[j].StartSec
	})

	if len(merged) > maxHits {
		merged = merged[:maxHits]
	}
	return merged, nil
}

// mergeHits concatenates result sets, dropping hits whose rounded time window
// was already seen in an earlier set or earlier in the same set.
func mergeHits(resultSets [][]Hit) []Hit {
	seen := make(map[windowKey]struct{})
	merged := make([]Hit, 0)
	for _, hits := range resultSets {
		for _, hit := range hits {
			key := windowKeyOf(hit)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, hit)
		}
	}
	return merged
}

type windowKey struct {
	start int
	end   int
}

func windowKeyOf(h Hit) windowKey {
	return windowKey{
		start: int(math.Round(h.StartSec)),
		end:   int(math.Round(h.EndSec)),
	}
}
