package domain

import "strings"

// Sentiment classifies the customer's mood as reported by the completion
// provider.
type Sentiment string

const (
	SentimentNeutral  Sentiment = "neutral"
	SentimentUpset    Sentiment = "upset"
	SentimentHappy    Sentiment = "happy"
	SentimentConfused Sentiment = "confused"
)

// NormalizeSentiment maps arbitrary provider output onto the sentiment enum.
// Unknown values collapse to neutral.
func NormalizeSentiment(raw string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case SentimentUpset:
		return SentimentUpset
	case SentimentHappy:
		return SentimentHappy
	case SentimentConfused:
		return SentimentConfused
	default:
		return SentimentNeutral
	}
}

// SentimentScore converts a sentiment to the -5..+5 gauge scale used by the
// dashboard meter.
func SentimentScore(s Sentiment) int {
	switch s {
	case SentimentHappy:
		return 5
	case SentimentUpset:
		return -5
	case SentimentConfused:
		return -2
	default:
		return 0
	}
}

// NormalizeKeywords trims, lower-cases and de-duplicates keyword lists,
// preserving first-occurrence order and dropping empties.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
