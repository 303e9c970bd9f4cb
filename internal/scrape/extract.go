package scrape

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/shanehull/promowatch/internal/types"
)

// FallbackReward is attached to codes picked up from bold text when no table could be classified.
const FallbackReward = "Unknown (check page)"

const (
	headingSelector     = "h1, h2, h3, h4, h5, h6"
	emphasisSelector    = "strong, b"
	updateCueSelector   = "h1, h2, h3, h4, p strong, p b"
	inlineParentMatcher = "p, li, span, a, em, i, label, small"
)

var (
	timeLimitedKeywords = []string{"time-limited", "time limited", "active promo codes", "limited"}
	newPlayerKeywords   = []string{"new player", "long-term", "long term", "permanent"}

	updateCues = []string{"updated", "as of"}
	// A month only counts next to a day or year, so "you may have missed" is not a date.
	monthPattern = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d|\d(st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

// Extractor turns page markup into code records. Implementations never fail: unrecognised
// markup yields an empty result.
type Extractor interface {
	Extract(markup string) types.ExtractionResult
}

// HeuristicExtractor classifies tables by the heading that precedes them.
type HeuristicExtractor struct {
	now func() time.Time
}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{now: time.Now}
}

// WithClock overrides the clock used for FetchedAt.
func (e *HeuristicExtractor) WithClock(now func() time.Time) *HeuristicExtractor {
	e.now = now
	return e
}

func (e *HeuristicExtractor) Extract(markup string) types.ExtractionResult {
	result := types.ExtractionResult{
		UpdateLabel: types.UnknownUpdateLabel,
		FetchedAt:   e.now(),
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return result
	}
	doc := goquery.NewDocumentFromNode(root)

	result.UpdateLabel = findUpdateLabel(doc)

	for _, t := range classifyTables(doc) {
		records := tableRecords(t.table)
		switch t.category {
		case types.CategoryTimeLimited:
			result.TimeLimited = append(result.TimeLimited, records...)
		case types.CategoryNewPlayer:
			result.NewPlayer = append(result.NewPlayer, records...)
		}
	}

	if result.Empty() {
		result.TimeLimited = emphasisFallback(doc)
	}

	return result
}

// findUpdateLabel returns the text of the last heading or emphasis that looks like a date cue.
func findUpdateLabel(doc *goquery.Document) string {
	label := types.UnknownUpdateLabel
	doc.Find(updateCueSelector).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text != "" && isUpdateCue(text) {
			label = text
		}
	})
	return label
}

func isUpdateCue(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range updateCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return monthPattern.MatchString(lower)
}

type classifiedTable struct {
	table    *goquery.Selection
	category types.Category
}

// classifyTables walks headings, emphasis and tables in document order so each table sees the
// nearest label before it, however deeply either one is wrapped. Labels inside tables are ignored.
func classifyTables(doc *goquery.Document) []classifiedTable {
	var (
		tables  []classifiedTable
		heading string
	)

	doc.Find(headingSelector + ", " + emphasisSelector + ", table").Each(func(_ int, s *goquery.Selection) {
		if s.Is("table") {
			if category, ok := classifyHeading(heading); ok {
				tables = append(tables, classifiedTable{table: s, category: category})
			}
			return
		}

		if s.Closest("table").Length() > 0 {
			return
		}
		// Emphasis inside a heading is already part of the heading's text.
		if s.Is(emphasisSelector) && s.Closest(headingSelector).Length() > 0 {
			return
		}

		if text, ok := labelText(s); ok {
			heading = text
		}
	})

	return tables
}

// labelText accepts headings, and emphasis that makes up the whole text of an inline parent and
// is not just an update date.
func labelText(s *goquery.Selection) (string, bool) {
	text := cleanText(s.Text())
	if text == "" {
		return "", false
	}
	if s.Is(headingSelector) {
		return text, true
	}

	parent := s.Parent()
	if parent.Is(inlineParentMatcher) && cleanText(parent.Text()) != text {
		return "", false
	}
	// A bold date line between a heading and its table keeps the heading's label.
	if _, ok := classifyHeading(text); !ok && isUpdateCue(text) {
		return "", false
	}
	return text, true
}

// classifyHeading maps heading text to a category. Time-limited keywords win when both sets match.
func classifyHeading(heading string) (types.Category, bool) {
	lower := strings.ToLower(heading)
	if lower == "" {
		return "", false
	}
	if containsAny(lower, timeLimitedKeywords) {
		return types.CategoryTimeLimited, true
	}
	if containsAny(lower, newPlayerKeywords) {
		return types.CategoryNewPlayer, true
	}
	return "", false
}

// tableRecords reads code/reward pairs from the table's own rows, skipping rows of nested tables.
func tableRecords(table *goquery.Selection) []types.CodeRecord {
	var records []types.CodeRecord

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if !row.Closest("table").IsSelection(table) {
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}

		code := Normalize(cells.Eq(0).Text())
		if !ValidCode(code) {
			return
		}

		records = append(records, types.CodeRecord{
			Code:   code,
			Reward: cleanText(cells.Eq(1).Text()),
		})
	})

	return records
}

// emphasisFallback accepts any bold token shaped like a code. It can pick up words that are not
// codes; precision is traded for having something to show when the page layout changes.
func emphasisFallback(doc *goquery.Document) []types.CodeRecord {
	var records []types.CodeRecord
	doc.Find(emphasisSelector).Each(func(_ int, s *goquery.Selection) {
		code := Normalize(s.Text())
		if ValidCode(code) {
			records = append(records, types.CodeRecord{Code: code, Reward: FallbackReward})
		}
	})
	return records
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
