// Package filter narrows a fetched recipe list by tag selection and fuzzy
// full-text search. All functions are pure; filtering happens client-side on
// the already-fetched set.
package filter

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/recipebox/internal/recipe"
)

// Tokenize splits text into lowercase word tokens. A token is a maximal run
// of letters, digits, combining marks and underscores.
//
// Text is NFC-normalized first so composed and decomposed forms of the same
// accented letter produce the same token.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	// Caser is stateful and not safe for sharing across goroutines
	lowered := cases.Lower(language.Und).String(norm.NFC.String(text))
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Selection is a set of selected tag names.
type Selection map[string]struct{}

// NewSelection builds a Selection from tag names. Empty names are skipped.
func NewSelection(names ...string) Selection {
	s := make(Selection, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
	return s
}

// MatchTags reports whether r passes the tag filter: an empty selection
// passes everything, otherwise r needs at least one selected tag.
func MatchTags(r recipe.RecipeLight, selected Selection) bool {
	if len(selected) == 0 {
		return true
	}
	for _, t := range r.Tags {
		if _, ok := selected[t.Name]; ok {
			return true
		}
	}
	return false
}

// SearchTokens returns the tokens searched for r: its name, tag names and
// ingredient contents. Quantities are not searched.
func SearchTokens(r recipe.RecipeLight) []string {
	tokens := Tokenize(r.Name)
	for _, t := range r.Tags {
		tokens = append(tokens, Tokenize(t.Name)...)
	}
	for _, i := range r.Ingredients {
		tokens = append(tokens, Tokenize(i.Content)...)
	}
	return tokens
}

// MatchSearch reports whether any query token and any recipe token contain
// one another. No query tokens means everything matches.
func MatchSearch(r recipe.RecipeLight, query []string) bool {
	if len(query) == 0 {
		return true
	}
	for _, rt := range SearchTokens(r) {
		for _, qt := range query {
			if strings.Contains(rt, qt) || strings.Contains(qt, rt) {
				return true
			}
		}
	}
	return false
}

// Query combines a tag selection and a raw search string.
type Query struct {
	Tags   []string
	Search string
}

// Empty reports whether q filters nothing out.
func (q Query) Empty() bool {
	return len(NewSelection(q.Tags...)) == 0 && len(Tokenize(q.Search)) == 0
}

// Match applies both filters to a single recipe.
func (q Query) Match(r recipe.RecipeLight) bool {
	return MatchTags(r, NewSelection(q.Tags...)) && MatchSearch(r, Tokenize(q.Search))
}

// Apply returns the recipes passing both the tag and the search filter, in
// input order. The result is never nil.
func (q Query) Apply(list []recipe.RecipeLight) []recipe.RecipeLight {
	selected := NewSelection(q.Tags...)
	tokens := Tokenize(q.Search)

	out := make([]recipe.RecipeLight, 0, len(list))
	for _, r := range list {
		if MatchTags(r, selected) && MatchSearch(r, tokens) {
			out = append(out, r)
		}
	}
	return out
}

// TagNames returns the sorted, distinct tag names across list.
func TagNames(list []recipe.RecipeLight) []string {
	seen := make(map[string]struct{})
	for _, r := range list {
		for _, t := range r.Tags {
			seen[t.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
