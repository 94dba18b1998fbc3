// Package similarity computes the independent per-pair signals the dedup
// engine combines into an overall duplicate score, plus the combiner and
// primary-method selection logic described in the dedup engine's scoring
// table. Every scorer is pure, returns a value in [0,1], and never NaNs —
// empty or missing inputs score 0, not an error.
package similarity

import (
	"math"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/normalize"
)

// TitleSim blends Jaccard-on-tokens (weight 0.4) with a bigram/character
// Dice coefficient (weight 0.6) over normalized titles.
func TitleSim(titleA, titleB string) float64 {
	na, nb := normalize.Text(titleA), normalize.Text(titleB)
	if na == "" || nb == "" {
		return 0
	}
	jaccard := tokenJaccard(normalize.Tokens(na), normalize.Tokens(nb))
	dice := diceBigram(na, nb)
	return 0.4*jaccard + 0.6*dice
}

func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	return jaccardSets(setA, setB)
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func diceBigram(a, b string) float64 {
	ba, bb := normalize.Bigrams(a), normalize.Bigrams(b)
	totalA, totalB := 0, 0
	for _, c := range ba {
		totalA += c
	}
	for _, c := range bb {
		totalB += c
	}
	if totalA == 0 || totalB == 0 {
		return 0
	}
	overlap := 0
	for bg, ca := range ba {
		cb := bb[bg]
		if cb < ca {
			overlap += cb
		} else {
			overlap += ca
		}
	}
	return 2 * float64(overlap) / float64(totalA+totalB)
}

// EntitySim is the Jaccard index over lowercased entity-name sets.
func EntitySim(a, b *entity.Article) float64 {
	setA, setB := a.EntityNames(), b.EntityNames()
	return jaccardSets(setA, setB)
}

// TemporalProx decays linearly to 0 over 24 hours of absolute time
// difference.
func TemporalProx(a, b time.Time) float64 {
	deltaHours := math.Abs(a.Sub(b).Hours())
	v := 1 - deltaHours/24
	if v < 0 {
		return 0
	}
	return v
}

// SourceAlign combines same-source, same-category and tag-Jaccard signals.
func SourceAlign(a, b *entity.Article) float64 {
	score := 0.0
	if a.Source != "" && a.Source == b.Source {
		score += 0.4
	}
	if a.Category != "" && a.Category == b.Category {
		score += 0.3
	}
	score += 0.3 * tagJaccard(a.Tags, b.Tags)
	return score
}

func tagJaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	return jaccardSets(setA, setB)
}
