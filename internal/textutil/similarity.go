package textutil

import (
	"math"
	"sort"
	"strings"
)

// Fingerprint represents a term-frequency vector for name similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var sum float64
	for _, count := range counts {
		sum += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(sum)}
}

// Tokenize splits text into normalized tokens. Single-character tokens are dropped.
func Tokenize(text string) []string {
	raw := strings.Split(Normalize(text), "_")
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 2 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}

// Suggest returns up to limit candidates whose similarity to query is at
// least minScore, best match first. Ties keep candidate order.
func Suggest(query string, candidates []string, minScore float64, limit int) []string {
	target := NewFingerprint(query)
	if target == nil || limit <= 0 {
		return nil
	}
	type scored struct {
		name  string
		score float64
	}
	var matches []scored
	for _, candidate := range candidates {
		score := CosineSimilarity(target, NewFingerprint(candidate))
		if score >= minScore && score > 0 {
			matches = append(matches, scored{name: candidate, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
