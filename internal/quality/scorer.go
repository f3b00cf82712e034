package quality

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

const memoCapacity = 1000

var tokenPattern = regexp.MustCompile(`[a-z]{2,}`)

// Scorer estimates how likely a text string is genuine readable language
// versus extraction noise. Scores are memoized per distinct input and the
// reference word list is loaded at most once, on first use.
type Scorer struct {
	loadWords func() map[string]struct{}

	once  sync.Once
	words map[string]struct{}

	memo *lru.Cache[string, float64]
}

// NewScorer builds a scorer backed by the system word list.
func NewScorer(wordlistPath string) *Scorer {
	return newScorer(func() map[string]struct{} { return loadWordList(wordlistPath) })
}

func newScorer(loader func() map[string]struct{}) *Scorer {
	memo, _ := lru.New[string, float64](memoCapacity)
	return &Scorer{loadWords: loader, memo: memo}
}

func (s *Scorer) wordList() map[string]struct{} {
	s.once.Do(func() {
		s.words = s.loadWords()
	})
	return s.words
}

// Score returns a quality estimate in [0,1]. Empty or whitespace-only text
// scores exactly 0.
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}
	if cached, ok := s.memo.Get(text); ok {
		return cached
	}

	score := s.computeScore(text)
	s.memo.Add(text, score)
	return score
}

func (s *Scorer) computeScore(text string) float64 {
	lower := strings.ToLower(text)
	tokens := tokenPattern.FindAllString(stripPunctuation(lower), -1)
	if len(tokens) == 0 {
		return 0.0
	}

	var scores []float64

	// Dictionary word ratio; dropped entirely when no word list is available.
	if words := s.wordList(); len(words) > 0 {
		valid := 0
		for _, token := range tokens {
			if _, ok := words[token]; ok {
				valid++
			}
		}
		scores = append(scores, float64(valid)/float64(len(tokens)))
	}

	// Character variety, normalized to alphabet size.
	scores = append(scores, clamp01(float64(distinctRunes(lower))/26.0))

	// Average token length, normalized around 6 characters.
	total := 0
	for _, token := range tokens {
		total += len(token)
	}
	avgLen := float64(total) / float64(len(tokens))
	scores = append(scores, clamp01(avgLen/6.0))

	// Whitespace ratio; garbled OCR output tends to lose spacing.
	spaces := strings.Count(text, " ")
	scores = append(scores, clamp01(float64(spaces)/float64(len(text))*5.0))

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func distinctRunes(s string) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0.0 {
		return 0.0
	}
	return v
}
