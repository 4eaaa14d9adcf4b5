package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint is a term-frequency vector used to compare short texts.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no tokens of three or more characters.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit, dropping tokens shorter than three characters.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 3 {
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
	if len(b.tokens) < len(a.tokens) {
		a, b = b, a
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}

// DedupeIndexes returns the indexes of texts to keep, in input order, dropping
// any text whose similarity to an earlier kept text is at least threshold.
// Texts without tokens are always kept.
func DedupeIndexes(texts []string, threshold float64) []int {
	kept := make([]int, 0, len(texts))
	prints := make([]*Fingerprint, 0, len(texts))
	for idx, text := range texts {
		fp := NewFingerprint(text)
		duplicate := false
		if fp != nil {
			for _, prior := range prints {
				if CosineSimilarity(fp, prior) >= threshold {
					duplicate = true
					break
				}
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, idx)
		if fp != nil {
			prints = append(prints, fp)
		}
	}
	return kept
}
