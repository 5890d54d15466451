package geo

import (
	"testing"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	gz, err := LoadGazetteer()
	if err != nil {
		t.Fatalf("failed to load gazetteer: %v", err)
	}
	return NewResolver(gz)
}

func assertResolved(t *testing.T, r *Resolver, text string, wantCode int) {
	t.Helper()
	loc := r.Find(text)
	if loc == nil {
		t.Fatalf("Find(%q) = nil, want code %d", text, wantCode)
	}
	if loc.Code != wantCode {
		t.Errorf("Find(%q) = %d (%s), want %d", text, loc.Code, loc.En, wantCode)
	}
}

func TestResolverFindByName(t *testing.T) {
	r := testResolver(t)
	assertResolved(t, r, "Haifa", 4000)
	assertResolved(t, r, "Хайфа", 4000)
	assertResolved(t, r, "חיפה", 4000)
	assertResolved(t, r, "Иерусалим, ул. Яффо 1", 3000)
}

func TestResolverFindByAlias(t *testing.T) {
	r := testResolver(t)
	assertResolved(t, r, "Tel Aviv", 5000)
	assertResolved(t, r, "TLV", 5000)
	assertResolved(t, r, "Тель Авив, Дизенгоф 10", 5000)
	assertResolved(t, r, "тель-авив", 5000)
}

func TestResolverLongestMatchInsideAddress(t *testing.T) {
	r := testResolver(t)
	// Locality embedded in a longer address still resolves.
	assertResolved(t, r, "Tel Aviv district office, Begin road 5", 5000)
	assertResolved(t, r, "ул. Герцль 12, Ришон-ле-Цион", 8300)
}

func TestResolverWordBoundaries(t *testing.T) {
	r := testResolver(t)
	// "Lod" must not match inside an unrelated word.
	if loc := r.Find("Melody street 3"); loc != nil {
		t.Errorf("expected no match inside a word, got %s", loc.En)
	}
}

func TestResolverSpellingVariants(t *testing.T) {
	r := testResolver(t)
	// Hyphenated Russian names also match with spaces.
	assertResolved(t, r, "Петах Тиква", 7900)
	assertResolved(t, r, "Кфар Сава, центр", 6900)
}

func TestResolverUnknown(t *testing.T) {
	r := testResolver(t)
	for _, text := range []string{"", "asdfgh qwerty", "улица без города 5"} {
		if loc := r.Find(text); loc != nil {
			t.Errorf("Find(%q) = %s, want nil", text, loc.En)
		}
	}
}

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(testResolver(t))
}

func TestClassifyBands(t *testing.T) {
	c := testClassifier(t)
	cases := []struct {
		from, to string
		want     RouteBand
	}{
		{"Тель-Авив, Дизенгоф 1", "Tel Aviv, Allenby 10", BandSameCity},
		{"Тель-Авив", "Рамат-Ган", BandSameMetro},
		{"Хайфа", "Кирьят-Ата", BandSameMetro},
		{"Ришон-ле-Цион", "Петах-Тиква", BandInterRegionShort},
		{"Тель-Авив", "Хайфа", BandInterRegionLong},
		{"Тель-Авив", "Эйлат", BandExtremeDistance},
		{"Эйлат", "Иерусалим", BandExtremeDistance},
		{"где-то", "Хайфа", BandUnknown},
		{"Хайфа", "", BandUnknown},
	}
	for _, tc := range cases {
		got := c.Classify(tc.from, tc.to)
		if got.Band != tc.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tc.from, tc.to, got.Band, tc.want)
		}
	}
}

func TestClassifyMetadata(t *testing.T) {
	c := testClassifier(t)
	cls := c.Classify("Хайфа", "Эйлат")
	if cls.FromLocality != "Haifa" || cls.ToLocality != "Eilat" {
		t.Errorf("localities = %q / %q", cls.FromLocality, cls.ToLocality)
	}
	if cls.FromRegion == nil || *cls.FromRegion != 3 {
		t.Errorf("FromRegion = %v, want 3", cls.FromRegion)
	}
	if cls.ToRegion == nil || *cls.ToRegion != 6 {
		t.Errorf("ToRegion = %v, want 6", cls.ToRegion)
	}
	if cls.FromNames == nil || cls.FromNames["ru"] != "Хайфа" {
		t.Errorf("FromNames = %v", cls.FromNames)
	}
}

func TestClassifyUnresolvedKeepsPartialMetadata(t *testing.T) {
	c := testClassifier(t)
	cls := c.Classify("какое-то место", "Хайфа")
	if cls.Band != BandUnknown {
		t.Fatalf("Band = %s, want unknown", cls.Band)
	}
	if cls.ToLocality != "Haifa" {
		t.Errorf("ToLocality = %q, want Haifa", cls.ToLocality)
	}
	if cls.FromLocality != "" || cls.FromRegion != nil {
		t.Errorf("unresolved origin should stay empty, got %q/%v", cls.FromLocality, cls.FromRegion)
	}
}
