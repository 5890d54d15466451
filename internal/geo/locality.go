package geo

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Resolver resolves free-text substrings to a canonical locality record.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	gz    *Gazetteer
	byKey map[string]*Locality
	keys  []string // sorted by descending length for greedy longest-match
	strip transform.Transformer
}

// NewResolver builds the name lookup table from all three language names,
// the curated alias list and auto-generated Russian spelling variants. On
// key collision, first registration wins.
func NewResolver(gz *Gazetteer) *Resolver {
	r := &Resolver{
		gz:    gz,
		byKey: make(map[string]*Locality),
		strip: transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}

	register := func(name string, loc *Locality) {
		key := r.normalize(name)
		if key == "" {
			return
		}
		if _, exists := r.byKey[key]; exists {
			return
		}
		r.byKey[key] = loc
	}

	for i := range gz.Localities {
		loc := &gz.Localities[i]
		register(loc.He, loc)
		register(loc.En, loc)
		register(loc.Ru, loc)
		for _, v := range russianVariants(loc.Ru) {
			register(v, loc)
		}
	}
	for _, a := range gz.Aliases {
		loc := gz.ByCode(a.Code)
		if loc == nil {
			slog.Warn("NewResolver: alias references unknown locality code", "alias", a.Name, "code", a.Code)
			continue
		}
		register(a.Name, loc)
		for _, v := range russianVariants(a.Name) {
			register(v, loc)
		}
	}

	r.keys = make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		r.keys = append(r.keys, k)
	}
	sort.Slice(r.keys, func(i, j int) bool {
		if len(r.keys[i]) != len(r.keys[j]) {
			return len(r.keys[i]) > len(r.keys[j])
		}
		return r.keys[i] < r.keys[j]
	})

	slog.Debug("NewResolver: lookup table built", "keys", len(r.keys))
	return r
}

// Find resolves free text to a locality, scanning longest keys first and
// accepting a match only when its boundaries align with word separators.
// Returns nil when nothing matches; callers must treat that as unknown.
func (r *Resolver) Find(text string) *Locality {
	normalized := r.normalize(text)
	if normalized == "" {
		return nil
	}
	for _, key := range r.keys {
		if idx := boundaryIndex(normalized, key); idx >= 0 {
			return r.byKey[key]
		}
	}
	return nil
}

// boundaryIndex returns the index of key within s where both edges of the
// match align with a word separator or the string edge, or -1.
func boundaryIndex(s, key string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], key)
		if idx < 0 {
			return -1
		}
		idx += from
		if isBoundary(s, idx-1) && isBoundary(s, idx+len(key)) {
			return idx
		}
		from = idx + 1
		if from >= len(s) {
			return -1
		}
	}
}

func isBoundary(s string, idx int) bool {
	if idx < 0 || idx >= len(s) {
		return true
	}
	switch s[idx] {
	case ' ', ',', '-':
		return true
	}
	return false
}

// normalize lowercases, strips diacritics, unifies dash variants, replaces
// punctuation with spaces (keeping comma and hyphen as separators) and
// collapses whitespace.
func (r *Resolver) normalize(s string) string {
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(r.strip, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch {
		case c == '–' || c == '—' || c == '‒' || c == '―' || c == '−':
			b.WriteRune('-')
		case c == ',' || c == '-':
			b.WriteRune(c)
		case unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\'':
			b.WriteRune(c)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// russianVariants generates common alternative spellings for Russian names:
// hyphen/space swaps and "ё" to "е".
func russianVariants(name string) []string {
	var variants []string
	if strings.Contains(name, "-") {
		variants = append(variants, strings.ReplaceAll(name, "-", " "))
	}
	if strings.Contains(name, " ") {
		variants = append(variants, strings.ReplaceAll(name, " ", "-"))
	}
	if strings.ContainsRune(name, 'ё') {
		variants = append(variants, strings.ReplaceAll(name, "ё", "е"))
	}
	return variants
}
