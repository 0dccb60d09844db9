package dedupe

import (
	"encoding/hex"
	"math"
	"math/bits"
	"strings"

	"propscan_backend/internal/address"
)

// Gates holds the configurable thresholds that decide when two listings are
// linkable. Zero value is not usable; start from DefaultGates.
type Gates struct {
	// AddressGate is the minimum address similarity for two listings to be
	// comparable at all.
	AddressGate float64
	// PricePct is the relative price tolerance (percent) below
	// PriceTightThreshold; PriceTightPct applies at or above it.
	PricePct            float64
	PriceTightPct       float64
	PriceTightThreshold float64
	// SizeSqm is the absolute area tolerance in square meters.
	SizeSqm float64
	// ImageMaxHamming is the maximum Hamming distance between perceptual
	// image hashes still counted as a match.
	ImageMaxHamming int
}

// DefaultGates returns the tolerances validated against the known duplicate
// scenarios.
func DefaultGates() Gates {
	return Gates{
		AddressGate:         0.75,
		PricePct:            10,
		PriceTightPct:       5,
		PriceTightThreshold: 100000,
		SizeSqm:             8,
		ImageMaxHamming:     5,
	}
}

// imageAddressFloor is the relaxed address gate applied when an image match
// is the linking signal; it keeps hash collisions across unrelated streets
// from merging clusters.
const imageAddressFloor = 0.5

// Candidate is one listing prepared for comparison.
type Candidate struct {
	// Index identifies the listing within the scan's arena.
	Index       int
	Address     address.Normalized
	Price       float64
	SizeSqm     float64
	ImageHashes []string
}

// Match is the outcome of comparing two candidates: the composite score,
// the per-dimension verdicts, and whether the pair is linkable.
type Match struct {
	Score             float64
	AddressSimilarity float64
	PriceOK           bool
	SizeOK            bool
	ImageOK           bool
	Linkable          bool
}

// Compare scores a candidate pair. It is symmetric, deterministic, and
// never mutates its inputs. A pair is linkable when the address gate holds
// and at least one of the price/size bands is satisfied, or when an image
// fingerprint match provides a strong independent signal.
func (g Gates) Compare(a, b Candidate) Match {
	m := Match{
		PriceOK: g.priceCompatible(a.Price, b.Price),
		SizeOK:  g.sizeCompatible(a.SizeSqm, b.SizeSqm),
		ImageOK: g.imagesMatch(a.ImageHashes, b.ImageHashes),
	}

	// String similarity is the expensive part; skip it when no dimension
	// could make the pair linkable anyway.
	if !m.PriceOK && !m.SizeOK && !m.ImageOK {
		return m
	}

	m.AddressSimilarity = addressSimilarity(a.Address, b.Address)
	m.Linkable = (m.AddressSimilarity >= g.AddressGate && (m.PriceOK || m.SizeOK)) ||
		(m.ImageOK && m.AddressSimilarity >= imageAddressFloor)
	m.Score = g.score(m)
	return m
}

// score folds the dimension verdicts into a composite in [0,1].
func (g Gates) score(m Match) float64 {
	s := 0.6 * m.AddressSimilarity
	if m.PriceOK {
		s += 0.15
	}
	if m.SizeOK {
		s += 0.15
	}
	if m.ImageOK {
		s += 0.10
	}
	if s > 1 {
		s = 1
	}
	return s
}

func (g Gates) priceCompatible(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	ref := math.Max(a, b)
	pct := g.PricePct
	if ref >= g.PriceTightThreshold {
		pct = g.PriceTightPct
	}
	return math.Abs(a-b)/ref*100 <= pct
}

func (g Gates) sizeCompatible(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	return math.Abs(a-b) <= g.SizeSqm
}

// imagesMatch reports whether any hash pair is identical or within the
// configured Hamming distance. Hashes are hex-encoded perceptual hashes;
// undecodable or differently sized hashes only match on string equality.
func (g Gates) imagesMatch(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, ha := range a {
		for _, hb := range b {
			if ha == "" || hb == "" {
				continue
			}
			if strings.EqualFold(ha, hb) {
				return true
			}
			if d, ok := hammingDistance(ha, hb); ok && d <= g.ImageMaxHamming {
				return true
			}
		}
	}
	return false
}

func hammingDistance(a, b string) (int, bool) {
	ba, errA := hex.DecodeString(strings.ToLower(a))
	bb, errB := hex.DecodeString(strings.ToLower(b))
	if errA != nil || errB != nil || len(ba) != len(bb) || len(ba) == 0 {
		return 0, false
	}
	d := 0
	for i := range ba {
		d += bits.OnesCount8(ba[i] ^ bb[i])
	}
	return d, true
}

// addressSimilarity combines token-set overlap with normalized edit
// distance over the street string. When both sides carry a house number
// the numbers must agree; a mismatch is a hard zero regardless of how
// similar the street names look.
func addressSimilarity(a, b address.Normalized) float64 {
	if a.HouseNumber != "" && b.HouseNumber != "" && a.HouseNumber != b.HouseNumber {
		return 0
	}

	sa, sb := a.Key(), b.Key()
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 1
	}

	jac := tokenJaccard(strings.Fields(sa), strings.Fields(sb))
	lev := 1 - normalizedLevenshtein(sa, sb)
	return math.Max(jac, lev)
}

func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// normalizedLevenshtein returns edit distance divided by the longer length,
// computed with a two-row table.
func normalizedLevenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return float64(prev[len(rb)]) / float64(longer)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
