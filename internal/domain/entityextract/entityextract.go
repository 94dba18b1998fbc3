// Package entityextract implements a heuristic, dependency-free named-entity
// extractor. The retrieval pack carries no NLP/NER library, so this mirrors
// the teacher's own precedent of small hand-rolled text utilities
// (internal/utils/text) rather than reaching for a model-backed tagger: the
// extractor is regexp and dictionary based, confidence-scored, and capped at
// a top-N result set per article.
package entityextract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"catchup-feed/internal/domain/entity"
)

// Config bounds extraction cost and output size.
type Config struct {
	TopN int
}

// DefaultConfig mirrors the documented default of 20 entities per article.
func DefaultConfig() Config {
	return Config{TopN: 20}
}

var (
	moneyRe          = regexp.MustCompile(`[$€£]\s?\d[\d,]*(\.\d+)?\s?(billion|million|thousand|bn|mn|k)?`)
	percentRe        = regexp.MustCompile(`\d+(\.\d+)?\s?%`)
	dateRe           = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(,)?\s+\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	capitalizedRunRe = regexp.MustCompile(`\b([A-Z][a-zA-Z'&.-]*(?:\s+[A-Z][a-zA-Z'&.-]*){0,3})\b`)
	tickerRe         = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	orgSuffixes      = []string{"Inc", "Inc.", "Corp", "Corp.", "Corporation", "LLC", "Ltd", "Ltd.", "Co", "Co.", "Group", "Holdings", "Bank", "Partners"}
	locationWords    = map[string]struct{}{
		"street": {}, "avenue": {}, "city": {}, "county": {}, "state": {}, "province": {},
	}
	financialContextWords = []string{
		"stock", "shares", "trading", "nasdaq", "nyse", "ticker", "earnings",
		"dividend", "market cap", "quarterly", "s&p", "index", "exchange",
	}
)

// Extract scans text (already concatenated title + content) for named
// entities, scores each with a confidence in [0,1], deduplicates by
// (name_lower, type) keeping the highest-confidence instance, and returns
// at most cfg.TopN entries ordered by descending confidence.
func Extract(text string, cfg Config) []entity.NamedEntity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.TopN <= 0 {
		cfg = DefaultConfig()
	}

	found := make(map[string]entity.NamedEntity)
	add := func(name string, typ entity.EntityType, confidence float64) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name) + "|" + string(typ)
		if existing, ok := found[key]; ok && existing.Confidence >= confidence {
			return
		}
		found[key] = entity.NamedEntity{Name: name, Type: typ, Confidence: confidence}
	}

	for _, m := range moneyRe.FindAllString(text, -1) {
		add(m, entity.EntityMoney, 0.9)
	}
	for _, m := range percentRe.FindAllString(text, -1) {
		add(m, entity.EntityPercentage, 0.9)
	}
	for _, m := range dateRe.FindAllString(text, -1) {
		add(m, entity.EntityDate, 0.85)
	}

	lowerText := strings.ToLower(text)
	isFinancialContext := false
	for _, w := range financialContextWords {
		if strings.Contains(lowerText, w) {
			isFinancialContext = true
			break
		}
	}
	if isFinancialContext {
		for _, m := range tickerRe.FindAllString(text, -1) {
			if isLikelyTicker(m) {
				add(m, entity.EntityTicker, 0.6)
			}
		}
	}

	for _, run := range capitalizedRunRe.FindAllString(text, -1) {
		typ, confidence := classifyCapitalizedRun(run)
		if typ == "" {
			continue
		}
		add(run, typ, confidence)
	}

	entities := make([]entity.NamedEntity, 0, len(found))
	for _, e := range found {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Confidence != entities[j].Confidence {
			return entities[i].Confidence > entities[j].Confidence
		}
		return entities[i].Name < entities[j].Name
	})
	if len(entities) > cfg.TopN {
		entities = entities[:cfg.TopN]
	}
	return entities
}

// classifyCapitalizedRun heuristically assigns a type to a run of
// capitalized words: an org suffix wins outright, a trailing location word
// marks a location, a single capitalized token is treated as low-confidence
// person/org ambiguity resolved in favor of organization, and multi-word
// runs without a recognized suffix are treated as likely person names.
func classifyCapitalizedRun(run string) (entity.EntityType, float64) {
	words := strings.Fields(run)
	if len(words) == 0 {
		return "", 0
	}
	last := words[len(words)-1]
	for _, suffix := range orgSuffixes {
		if strings.TrimSuffix(last, ".") == strings.TrimSuffix(suffix, ".") {
			return entity.EntityOrg, 0.85
		}
	}
	if _, ok := locationWords[strings.ToLower(last)]; ok {
		return entity.EntityLocation, 0.7
	}
	if len(words) >= 2 {
		return entity.EntityPerson, 0.6
	}
	// a single capitalized word is too ambiguous to score confidently; skip
	// it rather than guess, avoiding noisy single-token "entities"
	return "", 0
}

func isLikelyTicker(s string) bool {
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	// reject pure-roman-numeral-looking and common all-caps English words
	switch s {
	case "THE", "AND", "FOR", "WITH", "FROM", "THIS", "THAT", "WILL", "HAVE", "ITS":
		return false
	}
	if _, err := strconv.Atoi(s); err == nil {
		return false
	}
	return true
}
