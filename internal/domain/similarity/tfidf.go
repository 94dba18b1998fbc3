package similarity

import (
	"math"
	"strings"

	"catchup-feed/internal/domain/normalize"
)

// TFIDFConfig bounds the cost of pairwise TF-IDF: a hard cap on the number
// of distinct tokens considered (the pairwise vocabulary) and a cap on how
// many tokens of each document are read before stopping. Both are explicit
// configuration per the spec's open question on long-document bias — a
// document longer than MaxDocTokens is truncated for scoring purposes only,
// never for storage or display.
type TFIDFConfig struct {
	MaxVocabSize int
	MaxDocTokens int
}

// DefaultTFIDFConfig mirrors the engine's documented defaults.
func DefaultTFIDFConfig() TFIDFConfig {
	return TFIDFConfig{MaxVocabSize: 4000, MaxDocTokens: 2000}
}

var stopwords = buildStopwordSet()

func buildStopwordSet() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "of",
		"to", "in", "on", "at", "by", "for", "with", "about", "against",
		"between", "into", "through", "during", "before", "after", "above",
		"below", "from", "up", "down", "is", "are", "was", "were", "be",
		"been", "being", "have", "has", "had", "do", "does", "did", "will",
		"would", "could", "should", "may", "might", "must", "can", "this",
		"that", "these", "those", "it", "its", "as", "not", "no", "so",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ContentSim computes TF-IDF cosine similarity between two documents using
// a pairwise corpus: the vocabulary is built only from the two documents
// being compared, not a global index. Stopwords are filtered and each
// document's token stream is capped at cfg.MaxDocTokens before vocabulary
// construction, itself capped at cfg.MaxVocabSize distinct terms.
func ContentSim(a, b string, cfg TFIDFConfig) float64 {
	docA := tokenizeForTFIDF(a, cfg)
	docB := tokenizeForTFIDF(b, cfg)
	if len(docA) == 0 || len(docB) == 0 {
		return 0
	}

	vocab := buildVocab(docA, docB, cfg.MaxVocabSize)
	if len(vocab) == 0 {
		return 0
	}

	tfA := termFreq(docA, vocab)
	tfB := termFreq(docB, vocab)

	idf := make([]float64, len(vocab))
	for i := range vocab {
		df := 0
		if tfA[i] > 0 {
			df++
		}
		if tfB[i] > 0 {
			df++
		}
		// pairwise corpus of exactly 2 documents
		idf[i] = math.Log(1 + 2.0/float64(1+df))
	}

	var dot, normA, normB float64
	for i := range vocab {
		wa := tfA[i] * idf[i]
		wb := tfB[i] * idf[i]
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

func tokenizeForTFIDF(text string, cfg TFIDFConfig) []string {
	normalized := normalize.Text(text)
	if normalized == "" {
		return nil
	}
	fields := strings.Fields(normalized)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
		if cfg.MaxDocTokens > 0 && len(out) >= cfg.MaxDocTokens {
			break
		}
	}
	return out
}

func buildVocab(docA, docB []string, maxVocab int) []string {
	seen := make(map[string]struct{})
	vocab := make([]string, 0, len(docA)+len(docB))
	add := func(tokens []string) {
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			if maxVocab > 0 && len(vocab) >= maxVocab {
				return
			}
			seen[t] = struct{}{}
			vocab = append(vocab, t)
		}
	}
	add(docA)
	add(docB)
	return vocab
}

func termFreq(doc []string, vocab []string) []float64 {
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}
	freq := make([]float64, len(vocab))
	for _, t := range doc {
		if i, ok := index[t]; ok {
			freq[i]++
		}
	}
	total := float64(len(doc))
	if total == 0 {
		return freq
	}
	for i := range freq {
		freq[i] /= total
	}
	return freq
}
