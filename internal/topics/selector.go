// Package topics ranks trend keywords against industry and business-context
// terms and produces topic candidates.
package topics

import (
	"sort"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/types"
)

const (
	// MaxCandidates caps the number of ranked candidates returned.
	MaxCandidates = 10
	// MaxSupporting is the number of supporting keywords per candidate.
	MaxSupporting = 5

	risingBonus   = 20.0
	industryBonus = 10.0
	contextBonus  = 10.0
)

// DefaultIndustryTerms are used when no industry keywords are configured.
var DefaultIndustryTerms = []string{
	"snack", "candy", "chocolate", "nuts", "dried fruit", "trail mix",
	"bulk", "wholesale", "gift basket", "party favor", "office snacks",
}

// Selector scores trend items. It holds no state between calls.
type Selector struct {
	industry []string
}

// NewSelector returns a Selector for the given industry terms. Terms are
// lowercased and blanks dropped; an empty list falls back to DefaultIndustryTerms.
func NewSelector(industryTerms []string) *Selector {
	terms := normalizeTerms(industryTerms)
	if len(terms) == 0 {
		terms = normalizeTerms(DefaultIndustryTerms)
	}
	return &Selector{industry: terms}
}

type scored struct {
	item     types.TrendItem
	score    float64
	industry bool
	context  bool
}

// Select ranks trend items and returns at most MaxCandidates candidates,
// highest relevance first. An empty result means no usable topic.
//
// Items must match an industry term or a context keyword (substring in either
// direction, case-insensitive). If nothing matches but trend items exist,
// every item becomes a candidate in input order.
func (s *Selector) Select(items []types.TrendItem, contextKeywords map[string]struct{}) []types.TopicCandidate {
	deduped := Dedupe(items)
	if len(deduped) == 0 {
		return nil
	}

	contextTerms := make([]string, 0, len(contextKeywords))
	for kw := range contextKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			contextTerms = append(contextTerms, kw)
		}
	}
	// map iteration order is random; matching only needs a stable set
	sort.Strings(contextTerms)

	var relevant []scored
	for _, item := range deduped {
		kw := strings.ToLower(item.Keyword)
		industry := matchesAny(kw, s.industry)
		context := matchesAny(kw, contextTerms)
		if !industry && !context {
			continue
		}
		relevant = append(relevant, scored{
			item:     item,
			score:    Score(item, industry, context),
			industry: industry,
			context:  context,
		})
	}

	if len(relevant) == 0 {
		for _, item := range deduped {
			relevant = append(relevant, scored{item: item, score: item.ScoreValue()})
		}
	} else {
		sort.SliceStable(relevant, func(i, j int) bool {
			return relevant[i].score > relevant[j].score
		})
	}

	if len(relevant) > MaxCandidates {
		relevant = relevant[:MaxCandidates]
	}
	return buildCandidates(relevant)
}

// Score computes the relevance score of a trend item.
func Score(item types.TrendItem, industryMatch, contextMatch bool) float64 {
	score := item.ScoreValue()
	if item.Rising {
		score += risingBonus
	}
	if industryMatch {
		score += industryBonus
	}
	if contextMatch {
		score += contextBonus
	}
	return score
}

// Dedupe removes case-insensitive duplicate keywords. The first spelling
// wins, rising flags are OR-ed and the highest reported score is kept.
func Dedupe(items []types.TrendItem) []types.TrendItem {
	index := make(map[string]int, len(items))
	out := make([]types.TrendItem, 0, len(items))
	for _, item := range items {
		item.Keyword = strings.TrimSpace(item.Keyword)
		key := strings.ToLower(item.Keyword)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, item)
			continue
		}
		existing := &out[i]
		existing.Rising = existing.Rising || item.Rising
		if item.Score != nil && (existing.Score == nil || *item.Score > *existing.Score) {
			v := *item.Score
			existing.Score = &v
		}
	}
	return out
}

func buildCandidates(ranked []scored) []types.TopicCandidate {
	candidates := make([]types.TopicCandidate, 0, len(ranked))
	for i, self := range ranked {
		seen := map[string]struct{}{strings.ToLower(self.item.Keyword): {}}
		supporting := make([]string, 0, MaxSupporting)
		for j, other := range ranked {
			if len(supporting) == MaxSupporting {
				break
			}
			if j == i {
				continue
			}
			key := strings.ToLower(other.item.Keyword)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			supporting = append(supporting, other.item.Keyword)
		}
		candidates = append(candidates, types.TopicCandidate{
			Primary:       self.item.Keyword,
			Supporting:    supporting,
			Score:         self.score,
			IndustryMatch: self.industry,
			ContextMatch:  self.context,
		})
	}
	return candidates
}

// matchesAny reports whether keyword contains a term or a term contains keyword.
func matchesAny(keyword string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(keyword, term) || strings.Contains(term, keyword) {
			return true
		}
	}
	return false
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
