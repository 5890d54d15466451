package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/relomove/leadbot/internal/models"
)

// AliasLookup resolves a free-text fragment to a canonical item key.
// Build one with NewAliasLookup from the pricing catalog's alias lists.
type AliasLookup struct {
	aliases []aliasEntry // sorted by descending alias length
}

type aliasEntry struct {
	alias string
	key   string
}

// NewAliasLookup builds a lookup from canonical key to its multilingual
// alias list. Aliases are matched longest-first so "угловой диван" wins
// over "диван".
func NewAliasLookup(aliasesByKey map[string][]string) *AliasLookup {
	l := &AliasLookup{}
	for key, aliases := range aliasesByKey {
		for _, a := range aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			l.aliases = append(l.aliases, aliasEntry{alias: a, key: key})
		}
	}
	sort.Slice(l.aliases, func(i, j int) bool {
		if len(l.aliases[i].alias) != len(l.aliases[j].alias) {
			return len(l.aliases[i].alias) > len(l.aliases[j].alias)
		}
		return l.aliases[i].alias < l.aliases[j].alias
	})
	return l
}

// Match returns the canonical key for the longest alias contained in the
// fragment, or "" when nothing matches.
func (l *AliasLookup) Match(fragment string) string {
	f := strings.ToLower(fragment)
	for _, e := range l.aliases {
		if strings.Contains(f, e.alias) {
			return e.key
		}
	}
	return ""
}

// fragmentSplitRe splits a message into item fragments on commas, newlines,
// plus signs and "and" variants. RE2 word boundaries are ASCII-only and
// never fire next to Cyrillic or Hebrew letters, so the connective words are
// delimited by explicit whitespace instead of \b.
var fragmentSplitRe = regexp.MustCompile(`(?:,|\n|\+|;|\s(?:и|and|также|גם)\s|\sו-)`)

// Explicit quantity markers. Only these make a number a quantity.
var (
	qtyTimesRe  = regexp.MustCompile(`(?:^|\s)(\d{1,3})\s*[xх×](?:\s|$)`)
	qtyTimes2Re = regexp.MustCompile(`[xх×]\s*(\d{1,3})(?:\s|$)`)
	qtyUnitRe   = regexp.MustCompile(`(\d{1,3})\s*(?:шт|штук|штуки|pcs|pc\b|יח)`)
	qtyLabelRe  = regexp.MustCompile(`(?:qty|кол-во|количество)\s*[:=]?\s*(\d{1,3})`)
	bareQtyRe   = regexp.MustCompile(`(?:^|\s)(\d{1,3})(?:\s|$)`)
)

// attributeSuffixRe matches a number that describes the item rather than a
// count: dimensions, weights, capacities, door/seat counts. "5-дверный
// шкаф" is a five-door wardrobe, not five wardrobes.
var attributeSuffixRe = regexp.MustCompile(`\d{1,3}\s*-?\s*(?:кг|kg|см|cm|мм|mm|м\b|m\b|л\b|l\b|литр|дверн|двер|door|створ|местн|мест|seat|этаж|дюйм|inch|"|ק"ג|ס"מ)`)

// maxBareQuantity caps an unmarked bare number accepted as a quantity.
const maxBareQuantity = 20

// ExtractItems splits free text into fragments and matches each against the
// alias table. Quantity is recognized only via explicit markers (5x, x5,
// 5 шт, qty:5); a bare number counts only when small and not adjacent to an
// attribute suffix. Repeated items accumulate by canonical key.
func ExtractItems(text string, lookup *AliasLookup) []models.ItemCount {
	if lookup == nil {
		return nil
	}

	var out []models.ItemCount
	add := func(key string, qty int) {
		for i := range out {
			if out[i].Key == key {
				out[i].Qty += qty
				return
			}
		}
		out = append(out, models.ItemCount{Key: key, Qty: qty})
	}

	for _, fragment := range fragmentSplitRe.Split(strings.ToLower(text), -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		key := lookup.Match(fragment)
		if key == "" {
			continue
		}
		add(key, fragmentQuantity(fragment))
	}
	return out
}

// fragmentQuantity extracts the quantity from one fragment, defaulting to 1.
func fragmentQuantity(fragment string) int {
	for _, re := range []*regexp.Regexp{qtyTimesRe, qtyTimes2Re, qtyUnitRe, qtyLabelRe} {
		if m := re.FindStringSubmatch(fragment); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}

	// Bare numbers are attributes when an attribute suffix is present
	// anywhere nearby, and are capped as a sanity check.
	if attributeSuffixRe.MatchString(fragment) {
		return 1
	}
	if m := bareQtyRe.FindStringSubmatch(fragment); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= maxBareQuantity {
			return n
		}
	}
	return 1
}
