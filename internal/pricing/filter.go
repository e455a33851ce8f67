package pricing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"candlebliss-api/internal/model"
)

// FilterTier is the tier of the category filter that produced a result
type FilterTier string

const (
	TierNone     FilterTier = "none"     // Empty input
	TierAll      FilterTier = "all"      // No category requested
	TierCategory FilterTier = "category" // Exact category id match
	TierKeyword  FilterTier = "keyword"  // Keyword match on name/description
	TierFallback FilterTier = "fallback" // Unrelated products, degraded
)

// DefaultFallbackSize is the number of products shown when nothing matches
const DefaultFallbackSize = 6

// DefaultKeywords are the candle synonyms used by the keyword tier. A keyword
// matches at the start of a word, so "nen" finds "nen thom" but not "component".
var DefaultKeywords = []string{"nến", "nen", "candle"}

// FilterOptions configures the keyword and fallback tiers
type FilterOptions struct {
	Keywords     []string
	FallbackSize int
}

// FilterResult is the outcome of a category filter
type FilterResult struct {
	Products []model.Product
	Tier     FilterTier
	Degraded bool
}

// FilterByCategory selects the products of a category. The tiers are tried in
// order and the first non-empty one wins: exact category id, keyword match,
// then the first FallbackSize products flagged as degraded.
func FilterByCategory(products []model.Product, categoryID int64, opts FilterOptions) FilterResult {
	if len(products) == 0 {
		return FilterResult{Products: []model.Product{}, Tier: TierNone}
	}

	var matched []model.Product
	for _, p := range products {
		if p.InCategory(categoryID) {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return FilterResult{Products: matched, Tier: TierCategory}
	}

	keywords := opts.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	keywords = foldAll(keywords)
	for _, p := range products {
		if matchesKeyword(p, keywords) {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return FilterResult{Products: matched, Tier: TierKeyword}
	}

	size := opts.FallbackSize
	if size <= 0 {
		size = DefaultFallbackSize
	}
	if size > len(products) {
		size = len(products)
	}
	fallback := make([]model.Product, size)
	copy(fallback, products[:size])
	return FilterResult{Products: fallback, Tier: TierFallback, Degraded: true}
}

func matchesKeyword(p model.Product, keywords []string) bool {
	name := fold(p.Name)
	desc := fold(p.Description)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if containsWordPrefix(name, kw) || containsWordPrefix(desc, kw) {
			return true
		}
	}
	return false
}

// containsWordPrefix reports whether kw occurs in s where it is not preceded
// by a letter or digit
func containsWordPrefix(s, kw string) bool {
	for offset := 0; offset <= len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		i += offset
		if prev, _ := utf8.DecodeLastRuneInString(s[:i]); i == 0 || !(unicode.IsLetter(prev) || unicode.IsDigit(prev)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		offset = i + size
	}
	return false
}

// fold lowercases and composes to NFC so "Nến" typed in either Unicode form
// matches the keyword
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// ContainsFold reports whether needle occurs in s, ignoring case and
// Unicode composition
func ContainsFold(s, needle string) bool {
	return strings.Contains(fold(s), fold(strings.TrimSpace(needle)))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, fold(strings.TrimSpace(s)))
	}
	return out
}
