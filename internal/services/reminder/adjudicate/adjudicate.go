// Package adjudicate classifies resolved events as new or duplicate against
// the owner's existing reminders and against other candidates in one batch.
//
// Two events denote the same occurrence when their calendar dates are equal
// and their titles are equivalent. Time-of-day is deliberately ignored: an
// appointment mentioned at 9am in one entry and 3pm in another, on the same
// date, is the same occurrence.
package adjudicate

import (
	"strings"
	"time"

	"github.com/mirajournal/mira/internal/services/reminder/temporal"
)

// Decision is the outcome of adjudicating one resolved event.
type Decision string

const (
	// DecisionNew means no tracked reminder covers this occurrence.
	DecisionNew Decision = "new"
	// DecisionDuplicate means the occurrence is already tracked.
	DecisionDuplicate Decision = "duplicate"
)

// Existing is the snapshot view of one tracked reminder.
type Existing struct {
	ID    string
	Title string
	At    time.Time
}

// Result carries the decision and, for duplicates, the matched reminder.
type Result struct {
	Decision          Decision
	MatchedReminderID string
}

// TitleMatcher decides whether two titles denote the same event. The default
// is a string heuristic; callers can plug a semantic-similarity collaborator.
type TitleMatcher interface {
	Match(a, b string) bool
}

// TitleMatcherFunc adapts a function to the TitleMatcher interface.
type TitleMatcherFunc func(a, b string) bool

// Match implements TitleMatcher.
func (f TitleMatcherFunc) Match(a, b string) bool { return f(a, b) }

// similarityThreshold is the minimum token overlap for non-exact titles.
const similarityThreshold = 0.5

// Adjudicator applies the duplicate-matching rule.
type Adjudicator struct {
	titles TitleMatcher
}

// New builds an adjudicator. A nil matcher falls back to the default string
// heuristic.
func New(titles TitleMatcher) *Adjudicator {
	if titles == nil {
		titles = TitleMatcherFunc(TitlesEquivalent)
	}
	return &Adjudicator{titles: titles}
}

// Adjudicate classifies one resolved event against a point-in-time snapshot
// of existing reminders. A duplicate never overwrites the existing
// reminder's stored time.
func (a *Adjudicator) Adjudicate(resolved temporal.Resolved, existing []Existing) Result {
	for _, reminder := range existing {
		if !sameCalendarDay(resolved.At, reminder.At) {
			continue
		}
		if a.titles.Match(resolved.Title, reminder.Title) {
			return Result{Decision: DecisionDuplicate, MatchedReminderID: reminder.ID}
		}
	}
	return Result{Decision: DecisionNew}
}

// DedupeBatch removes batch-internal duplicates from candidates produced in
// one journal pass, keeping the first mention of each occurrence. It returns
// the surviving events and the number dropped.
func (a *Adjudicator) DedupeBatch(batch []temporal.Resolved) ([]temporal.Resolved, int) {
	kept := make([]temporal.Resolved, 0, len(batch))
	seen := make([]Existing, 0, len(batch))
	dropped := 0
	for _, resolved := range batch {
		if a.Adjudicate(resolved, seen).Decision == DecisionDuplicate {
			dropped++
			continue
		}
		kept = append(kept, resolved)
		seen = append(seen, Existing{Title: resolved.Title, At: resolved.At})
	}
	return kept, dropped
}

// sameCalendarDay compares year-month-day in the fixed reference timezone.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// TitlesEquivalent is the default title-equivalence heuristic: a
// case-insensitive exact match, or a token-overlap similarity at or above
// the fixed threshold.
func TitlesEquivalent(a, b string) bool {
	left := strings.ToLower(strings.TrimSpace(a))
	right := strings.ToLower(strings.TrimSpace(b))
	if left == "" || right == "" {
		return false
	}
	if left == right {
		return true
	}
	return tokenSimilarity(left, right) >= similarityThreshold
}

// tokenSimilarity returns the Jaccard index of the two titles' word sets.
func tokenSimilarity(a, b string) float64 {
	aTokens := titleTokens(a)
	bTokens := titleTokens(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(aTokens)+len(bTokens))
	for token := range aTokens {
		union[token] = struct{}{}
	}
	for token := range bTokens {
		union[token] = struct{}{}
	}
	shared := 0
	for token := range aTokens {
		if _, ok := bTokens[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(union))
}

func titleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(title, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		tokens[field] = struct{}{}
	}
	return tokens
}
