package alert

import (
	"context"
	"strings"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"
)

var breakingKeywords = []string{"breaking", "urgent", "alert", "developing"}

var businessKeywords = []string{"merger", "acquisition", "ipo", "bankruptcy", "ceo", "funding"}

// cooldownIndex is the process-local "no alert recently for a similar item"
// gate, keyed by a coarse (source, top title words) key per spec 4.F. It is
// deliberately not persisted: a multi-instance deployment needs an
// externalized version of this, out of scope here.
type cooldownIndex struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
}

func newCooldownIndex() *cooldownIndex {
	return &cooldownIndex{lastHit: make(map[string]time.Time)}
}

// coarseKey builds the dedup key from source plus the top 3 title words of
// length >= 4, lowercased, matching the spec's similarity key exactly.
func coarseKey(source, title string) string {
	words := strings.Fields(strings.ToLower(title))
	kept := make([]string, 0, 3)
	for _, w := range words {
		w = strings.Trim(w, ".,!?\"'():;")
		if len(w) >= 4 {
			kept = append(kept, w)
			if len(kept) == 3 {
				break
			}
		}
	}
	return strings.ToLower(source) + "|" + strings.Join(kept, "-")
}

// check reports whether source/title is currently cooling down, and if not,
// records the hit.
func (c *cooldownIndex) check(source, title string, window time.Time, now time.Time) bool {
	key := coarseKey(source, title)
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.lastHit[key]; ok && last.After(window) {
		return false
	}
	c.lastHit[key] = now
	return true
}

// gc drops entries older than horizon, called hourly per spec 4.F's history
// pruning rule.
func (c *cooldownIndex) gc(horizon time.Duration) {
	cutoff := time.Now().Add(-horizon)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range c.lastHit {
		if t.Before(cutoff) {
			delete(c.lastHit, k)
		}
	}
}

// admit runs the three-stage admission gate. It returns false with no error
// when the article is legitimately filtered (not an error condition); a
// non-nil error indicates the gate itself could not run (store failure).
func (d *Dispatcher) admit(ctx context.Context, article *entity.Article) (bool, string, error) {
	now := time.Now()

	count, err := d.store.CountAlertsSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return false, "", err
	}
	if count >= d.cfg.MaxAlertsPerHour {
		return false, "rate_limited", nil
	}

	if ok := d.cooldown.check(article.Source, article.Title, now.Add(-d.cfg.CooldownWindow), now); !ok {
		return false, "cooldown", nil
	}

	if score := qualityScore(article, d.cfg.TrustedSources); score < d.cfg.QualityThreshold {
		return false, "low_quality", nil
	}

	return true, "", nil
}

// qualityScore implements spec 4.F's integer scoring rule.
func qualityScore(article *entity.Article, trustedSources []string) int {
	score := 0

	switch {
	case len(article.Content) >= 500:
		score += 2
	case len(article.Content) >= 200:
		score += 1
	}

	if len(article.Entities) > 0 {
		score++
	}

	switch strings.ToLower(article.Category) {
	case "business", "technology", "breaking":
		score += 2
	}

	for _, s := range trustedSources {
		if strings.EqualFold(s, article.Source) {
			score++
			break
		}
	}

	if time.Since(article.PublishedAt) < 2*time.Hour {
		score++
	}

	return score
}

// computePriority implements spec 4.F's priority calculation: default
// medium, upgraded to high on breaking/business keywords or monetary
// magnitude, downgraded to low for entertainment.
func computePriority(article *entity.Article) entity.Priority {
	if strings.EqualFold(article.Category, "entertainment") {
		return entity.PriorityLow
	}

	titleLower := strings.ToLower(article.Title)
	contentLower := strings.ToLower(article.Content)

	if strings.EqualFold(article.Category, "breaking") {
		return entity.PriorityHigh
	}
	for _, kw := range breakingKeywords {
		if strings.Contains(titleLower, kw) {
			return entity.PriorityHigh
		}
	}
	for _, kw := range businessKeywords {
		if strings.Contains(titleLower, kw) {
			return entity.PriorityHigh
		}
	}
	if hasMonetaryMagnitude(contentLower) {
		return entity.PriorityHigh
	}

	return entity.PriorityMedium
}

// hasMonetaryMagnitude looks for "billion" or a "$NNNmillion"-shaped figure,
// per spec 4.F's monetary-magnitude trigger.
func hasMonetaryMagnitude(text string) bool {
	if strings.Contains(text, "billion") {
		return true
	}
	idx := strings.Index(text, "$")
	for idx != -1 {
		rest := text[idx+1:]
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits >= 3 && strings.HasPrefix(rest[digits:], "million") {
			return true
		}
		next := strings.Index(rest, "$")
		if next == -1 {
			break
		}
		idx = idx + 1 + next
	}
	return false
}

// selectChannels implements spec 4.F's channel-selection rule.
func selectChannels(article *entity.Article, priority entity.Priority, channels []Channel) []entity.Channel {
	category := strings.ToLower(article.Category)
	selected := make([]entity.Channel, 0, len(channels))
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		switch ch.Name() {
		case entity.ChannelWebhook:
			selected = append(selected, ch.Name())
		case entity.ChannelEmail:
			if priority == entity.PriorityHigh {
				selected = append(selected, ch.Name())
			}
		case entity.ChannelSlack:
			if category == "business" || category == "technology" {
				selected = append(selected, ch.Name())
			}
		}
	}
	return selected
}
