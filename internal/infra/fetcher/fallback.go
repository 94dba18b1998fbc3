package fetcher

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectorBlocklist strips elements that are never article body text:
// scripts, navigation chrome, and ad containers. Mirrors the teacher's
// own goquery extraction discipline in scraper.WebflowScraper.
var selectorBlocklist = []string{
	"script", "style", "nav", "header", "footer", "aside",
	"[class*=\"nav\"]", "[class*=\"menu\"]", "[class*=\"ad\"]",
	"[class*=\"advert\"]", "[id*=\"ad\"]", "[class*=\"sidebar\"]",
	"[class*=\"comment\"]", "[class*=\"cookie\"]", "[class*=\"banner\"]",
}

// largestTextBlockCandidates are the elements considered for the
// "largest text block" fallback, in rough order of how likely they are
// to wrap the main article body.
var largestTextBlockCandidates = []string{
	"article", "main", "[role=\"main\"]", "div", "section",
}

// extractLargestTextBlock is the selector-heuristic fallback spec 4.B
// calls for when Readability cannot identify an article: strip known
// chrome, then return the text of whichever remaining block-level
// element carries the most non-whitespace text. Returns
// ErrReadabilityFailed if nothing usable remains.
func extractLargestTextBlock(htmlBytes []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return "", ErrReadabilityFailed
	}

	for _, sel := range selectorBlocklist {
		doc.Find(sel).Remove()
	}

	best := ""
	bestLen := 0
	for _, sel := range largestTextBlockCandidates {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(collapseWhitespace(s.Text()))
			if len(text) > bestLen {
				best = text
				bestLen = len(text)
			}
		})
	}

	if best == "" {
		bodyText := strings.TrimSpace(collapseWhitespace(doc.Find("body").Text()))
		if bodyText == "" {
			return "", ErrReadabilityFailed
		}
		return bodyText, nil
	}

	return best, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
