package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/allertrack/backend/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Scoring bonuses
const (
	brandMatchBonus     = 15.0 // query mentions the product's brand
	substringMatchBonus = 10.0 // query is a substring of the product name
	fuzzyWeightFactor   = 0.8  // fuzzy token matches count 80% of an exact match
)

// searchStopWords are dropped from both sides before scoring
var searchStopWords = map[string]bool{
	"the": true, "and": true, "with": true, "of": true, "in": true, "for": true,
	"pack": true, "size": true, "value": true, "family": true, "new": true,
}

// ProductRanker orders local search results by how well they match the query
type ProductRanker struct {
	fuzzyEditDistance int
}

// NewProductRanker creates a ranker. A non-positive edit distance defaults to 1.
func NewProductRanker(fuzzyEditDistance int) *ProductRanker {
	if fuzzyEditDistance <= 0 {
		fuzzyEditDistance = 1
	}
	return &ProductRanker{fuzzyEditDistance: fuzzyEditDistance}
}

// Rank sorts products by descending score, ties broken by name
func (r *ProductRanker) Rank(query string, products []*domain.Product) []*domain.Product {
	type scored struct {
		product *domain.Product
		score   float64
	}

	ranked := make([]scored, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, scored{product: p, score: r.Score(query, p)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].product.Name < ranked[j].product.Name
	})

	out := make([]*domain.Product, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.product)
	}
	return out
}

// Score rates a product against the query on a 0-100 scale.
// Query coverage weighs 70%, Jaccard similarity 30%, plus brand and substring bonuses.
func (r *ProductRanker) Score(query string, product *domain.Product) float64 {
	queryTokens := tokenize(query)
	nameTokens := tokenize(product.Name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0
	}

	matched := 0.0
	for _, qt := range queryTokens {
		switch {
		case containsToken(nameTokens, qt):
			matched++
		case r.fuzzyContains(nameTokens, qt):
			matched += fuzzyWeightFactor
		}
	}

	coverage := matched / float64(len(queryTokens))
	jaccard := matched / float64(unionSize(queryTokens, nameTokens))
	score := (coverage*0.70 + jaccard*0.30) * 100

	queryLower := strings.ToLower(strings.TrimSpace(query))
	if product.Brand != nil && *product.Brand != "" && strings.Contains(queryLower, strings.ToLower(*product.Brand)) {
		score += brandMatchBonus
	}
	if len(queryLower) > 3 && strings.Contains(strings.ToLower(product.Name), queryLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

func (r *ProductRanker) fuzzyContains(tokens []string, token string) bool {
	for _, t := range tokens {
		if fuzzyTokenMatch(t, token, r.fuzzyEditDistance) {
			return true
		}
	}
	return false
}

// tokenize splits a string into lowercase tokens, dropping punctuation,
// single characters, stop words and pure numbers.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len([]rune(word)) <= 1 || searchStopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func unionSize(a, b []string) int {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		set[t] = struct{}{}
	}
	return len(set)
}

// fuzzyTokenMatch checks if two tokens are within the edit distance threshold.
// Tokens shorter than 4 runes must match exactly.
func fuzzyTokenMatch(a, b string, threshold int) bool {
	if a == b {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) < 4 || len(rb) < 4 {
		return false
	}

	diff := len(ra) - len(rb)
	if diff < 0 {
		diff = -diff
	}
	if diff > threshold {
		return false
	}

	return levenshteinDistance(ra, rb) <= threshold
}

// levenshteinDistance calculates the edit distance using two rolling rows
func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
