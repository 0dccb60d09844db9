package dedupe

import (
	"testing"

	"propscan_backend/internal/address"
)

func candidate(idx int, raw, city string, price, size float64, hashes ...string) Candidate {
	return Candidate{
		Index:       idx,
		Address:     address.Normalize(raw, city),
		Price:       price,
		SizeSqm:     size,
		ImageHashes: hashes,
	}
}

func TestCompareSameAddressClosePriceAndSize(t *testing.T) {
	g := DefaultGates()
	a := candidate(0, "Via Roma 10", "Milano", 300000, 80)
	b := candidate(1, "Via Roma, 10", "Milano", 305000, 82)

	m := g.Compare(a, b)
	if !m.Linkable {
		t.Fatalf("expected linkable pair, got %+v", m)
	}
	if m.AddressSimilarity < 0.99 {
		t.Errorf("address similarity = %v, want ~1", m.AddressSimilarity)
	}
	if !m.PriceOK {
		t.Error("expected price within band (1.6%% diff)")
	}
	if !m.SizeOK {
		t.Error("expected size within band (2 sqm diff)")
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	g := DefaultGates()
	pairs := [][2]Candidate{
		{candidate(0, "Via Roma 10", "Milano", 300000, 80), candidate(1, "V. Roma 10", "Milano", 305000, 82)},
		{candidate(0, "Corso Buenos Aires 33", "Milano", 450000, 110), candidate(1, "Via Padova 12", "Milano", 450000, 110)},
		{candidate(0, "Via Dante 4", "Napoli", 90000, 55, "a1b2c3d4e5f60718"), candidate(1, "Via Dante 4", "Napoli", 200000, 90, "a1b2c3d4e5f60718")},
	}

	for i, p := range pairs {
		ab := g.Compare(p[0], p[1])
		ba := g.Compare(p[1], p[0])
		if ab != ba {
			t.Errorf("pair %d: Compare not symmetric: %+v vs %+v", i, ab, ba)
		}
	}
}

func TestCompareHouseNumberMismatchIsHardZero(t *testing.T) {
	g := DefaultGates()
	a := candidate(0, "Via Roma 10", "Milano", 300000, 80)
	b := candidate(1, "Via Roma 12", "Milano", 300000, 80)

	m := g.Compare(a, b)
	if m.Linkable {
		t.Fatal("different house numbers on the same street must not link")
	}
	if m.AddressSimilarity != 0 {
		t.Errorf("address similarity = %v, want 0", m.AddressSimilarity)
	}
}

func TestCompareRequiresPriceOrSizeBand(t *testing.T) {
	g := DefaultGates()
	a := candidate(0, "Via Roma 10", "Milano", 300000, 80)
	// Same address, but price way off and size way off.
	b := candidate(1, "Via Roma 10", "Milano", 520000, 140)

	if m := g.Compare(a, b); m.Linkable {
		t.Fatalf("expected not linkable without a compatible price or size, got %+v", m)
	}
}

func TestCompareImageMatchOverridesBands(t *testing.T) {
	g := DefaultGates()
	// Price and size both incompatible, matching perceptual hash.
	a := candidate(0, "Via Roma 10", "Milano", 300000, 80, "ffe0a1b2c3d4e5f6")
	b := candidate(1, "Via Roma 10", "Milano", 520000, 140, "ffe0a1b2c3d4e5f4")

	m := g.Compare(a, b)
	if !m.ImageOK {
		t.Fatal("expected image hashes within hamming distance to match")
	}
	if !m.Linkable {
		t.Fatalf("image match should link despite price/size, got %+v", m)
	}
}

func TestCompareImageMatchStillNeedsAddressFloor(t *testing.T) {
	g := DefaultGates()
	a := candidate(0, "Via Roma 10", "Milano", 300000, 80, "ffe0a1b2c3d4e5f6")
	b := candidate(1, "Corso Como 99", "Milano", 520000, 140, "ffe0a1b2c3d4e5f6")

	if m := g.Compare(a, b); m.Linkable {
		t.Fatalf("identical hash on an unrelated address must not link, got %+v", m)
	}
}

func TestPriceBandTiers(t *testing.T) {
	g := DefaultGates()
	cases := []struct {
		name string
		a, b float64
		want bool
	}{
		{"small prices loose band ok", 90000, 97000, true},     // 7.2% < 10%
		{"small prices outside band", 90000, 101000, false},    // 10.9%
		{"large prices tight band ok", 300000, 310000, true},   // 3.2% < 5%
		{"large prices outside band", 300000, 330000, false},   // 9.1% > 5%
		{"zero price never compatible", 0, 300000, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.priceCompatible(tc.a, tc.b); got != tc.want {
				t.Errorf("priceCompatible(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestHammingDistance(t *testing.T) {
	if d, ok := hammingDistance("ff00", "ff00"); !ok || d != 0 {
		t.Errorf("identical hashes: d=%d ok=%v", d, ok)
	}
	if d, ok := hammingDistance("ff00", "ff01"); !ok || d != 1 {
		t.Errorf("one bit apart: d=%d ok=%v", d, ok)
	}
	if _, ok := hammingDistance("ff00", "ff0011"); ok {
		t.Error("different lengths must not be comparable")
	}
	if _, ok := hammingDistance("zzzz", "ff00"); ok {
		t.Error("undecodable hash must not be comparable")
	}
}

func TestNormalizedLevenshtein(t *testing.T) {
	if d := normalizedLevenshtein("via roma", "via roma"); d != 0 {
		t.Errorf("identical strings: %v, want 0", d)
	}
	if d := normalizedLevenshtein("via roma", "via rama"); d <= 0 || d > 0.2 {
		t.Errorf("one substitution over 8 runes: %v", d)
	}
}
