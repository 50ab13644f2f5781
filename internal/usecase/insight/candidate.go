package insight

import (
	"strings"
	"time"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

const (
	// KeywordConfidence is attached to rule-matched candidates
	KeywordConfidence = 0.72
	// ContextualConfidence is attached to scheduler-produced candidates
	ContextualConfidence = 0.6

	dedupePrefixRunes = 200
)

// Channel names the path that produced a candidate
type Channel string

const (
	ChannelKeyword    Channel = "keyword"
	ChannelContextual Channel = "contextual"
)

// Candidate is a gated-but-not-yet-dispatched insight
type Candidate struct {
	CallID      string
	Category    entities.Category
	Quote       string
	Confidence  float64
	DedupeKey   string
	TriggeredAt time.Time
	Channel     Channel
	// Recent holds preceding client lines, oldest first
	Recent []string
}

// NewCandidate builds a keyword candidate for quote
func NewCandidate(callID string, category entities.Category, quote string, recent []string, now time.Time) Candidate {
	return Candidate{
		CallID:      callID,
		Category:    category,
		Quote:       quote,
		Confidence:  KeywordConfidence,
		DedupeKey:   DedupeKey(category, quote),
		TriggeredAt: now,
		Channel:     ChannelKeyword,
		Recent:      recent,
	}
}

// DedupeKey is CATEGORY:<first 200 runes of the lowercased quote>
func DedupeKey(category entities.Category, quote string) string {
	normalized := []rune(strings.ToLower(strings.TrimSpace(quote)))
	if len(normalized) > dedupePrefixRunes {
		normalized = normalized[:dedupePrefixRunes]
	}
	return string(category) + ":" + string(normalized)
}
