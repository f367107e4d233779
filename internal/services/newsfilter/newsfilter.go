// Package newsfilter scores and ranks feed items for the daily report, favouring
// Taiwanese sources and topics while keeping local and international news balanced.
package newsfilter

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	mustKeepScore = 100
	otherLabel    = "📰 其他"
)

// Item is a feed entry as the fetcher emits it.
type Item struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`
	Source  string `json:"source"`
	ISODate string `json:"isoDate,omitempty"`
}

// ScoredItem is an Item with its relevance score.
type ScoredItem struct {
	Item
	RelevanceScore int    `json:"relevance_score"`
	SourceLabel    string `json:"source_label"`
}

// Filter applies one set of Rules.
type Filter struct {
	rules   Rules
	sources map[string]SourceRules
}

// New creates a Filter for rules.
func New(rules Rules) *Filter {
	sources := make(map[string]SourceRules, len(rules.Sources))
	for _, src := range rules.Sources {
		sources[src.Name] = src
	}
	return &Filter{rules: rules, sources: sources}
}

// Score returns the relevance of item. Any must-keep phrase short-circuits to 100.
func (f *Filter) Score(item Item) int {
	title := strings.ToLower(item.Title)
	content := strings.ToLower(item.Content)
	fullText := title + " " + content

	for _, phrase := range f.rules.MustKeepPhrases {
		if strings.Contains(fullText, strings.ToLower(phrase)) {
			return mustKeepScore
		}
	}

	src, known := f.sources[item.Source]
	score := src.BaseScore

	for _, keyword := range src.Exclude {
		if strings.Contains(fullText, strings.ToLower(keyword)) {
			score -= 5
		}
	}
	for _, keyword := range src.PriorityKeywords {
		keyword = strings.ToLower(keyword)
		switch {
		case strings.Contains(title, keyword):
			score += 10
		case strings.Contains(content, keyword):
			score += 5
		}
	}
	score += 4 * countContained(fullText, f.rules.TaiwanInterests)
	score += 6 * countContained(fullText, f.rules.GlobalTaiwanFocus)

	if known {
		switch src.Region {
		case RegionTaiwan:
			score += 5
			if strings.Contains(fullText, "國際") || strings.Contains(fullText, "global") {
				score += 8
			}
		default:
			if strings.Contains(fullText, "taiwan") || strings.Contains(fullText, "asia") {
				score += 10
			}
		}
	}

	for _, keyword := range f.rules.PracticalKeywords {
		if strings.Contains(title, keyword) {
			score += 7
		}
	}

	length := utf8.RuneCountInString(content)
	if length > 300 {
		score += 2
	}
	if length > 500 {
		score += 2
	}
	return score
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			n++
		}
	}
	return n
}

// Rank keeps the items published the day before targetDate, scores them, caps
// each source at its MaxItems and interleaves Taiwanese and international
// picks before ordering by score. Items without a publication date are kept.
func (f *Filter) Rank(ctx context.Context, items []Item, targetDate time.Time) []ScoredItem {
	logger := zerolog.Ctx(ctx)
	wantDay := targetDate.AddDate(0, 0, -1).Format(time.DateOnly)

	grouped := make(map[string][]ScoredItem, len(f.rules.Sources))
	for _, item := range items {
		if item.ISODate != "" {
			published, ok := parsePublished(item.ISODate)
			if !ok || published.Format(time.DateOnly) != wantDay {
				continue
			}
		}
		if _, known := f.sources[item.Source]; !known {
			continue
		}
		grouped[item.Source] = append(grouped[item.Source], ScoredItem{
			Item:           item,
			RelevanceScore: f.Score(item),
			SourceLabel:    f.Label(item.Source),
		})
	}

	var local, international []ScoredItem
	for _, src := range f.rules.Sources {
		candidates := grouped[src.Name]
		if len(candidates) == 0 {
			continue
		}
		kept := topItems(candidates, src.MaxItems)
		if src.Region == RegionTaiwan {
			local = append(local, kept...)
		} else {
			international = append(international, kept...)
		}
		logger.Debug().Str("source", src.Name).Int("candidates", len(candidates)).Int("kept", len(kept)).Msg("Filtered source")
	}

	ranked := make([]ScoredItem, 0, len(local)+len(international))
	for i := 0; i < max(len(local), len(international)); i++ {
		if i < len(local) {
			ranked = append(ranked, local[i])
		}
		if i < len(international) {
			ranked = append(ranked, international[i])
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	logger.Info().Int("local", len(local)).Int("international", len(international)).Msg("Ranked news items")
	return ranked
}

// Label returns the display label of a source.
func (f *Filter) Label(source string) string {
	if src, ok := f.sources[source]; ok && src.Label != "" {
		return src.Label
	}
	return otherLabel
}

func topItems(items []ScoredItem, limit int) []ScoredItem {
	if limit <= 0 {
		limit = defaultMaxItems
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RelevanceScore > items[j].RelevanceScore
	})
	kept := make([]ScoredItem, 0, min(limit, len(items)))
	for _, item := range items {
		if item.RelevanceScore <= 0 {
			break
		}
		kept = append(kept, item)
		if len(kept) == limit {
			break
		}
	}
	return kept
}

var publishedLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

func parsePublished(value string) (time.Time, bool) {
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
