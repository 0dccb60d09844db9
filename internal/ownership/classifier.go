// Package ownership decides who controls a listing: a private seller or an
// agency. The decision is a priority-ordered chain of independent rules;
// the first rule that matches wins, and every result carries the rule name
// and a human-readable justification so classifications stay auditable.
package ownership

import (
	"fmt"
	"strings"
)

// OwnerType is the classified controller of a listing.
type OwnerType string

const (
	OwnerPrivate OwnerType = "private"
	OwnerAgency  OwnerType = "agency"
)

// Confidence grades how strong the classification signal was.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Signals are the listing fields the classifier reads. Adapters fill in
// whatever their source exposes; empty fields simply don't fire rules.
type Signals struct {
	AdvertiserLabel string
	ContactType     string
	AgencyID        string
	AgencyName      string
	Title           string
	Description     string
}

// Classification is the classifier's result. Classifying identical Signals
// twice yields an identical Classification.
type Classification struct {
	OwnerType  OwnerType  `json:"ownerType"`
	AgencyName string     `json:"agencyName,omitempty"`
	Confidence Confidence `json:"confidence"`
	Rule       string     `json:"rule"`
	Reasoning  string     `json:"reasoning"`
}

// rule is one evaluator in the chain. It reports no match by returning
// ok=false; the engine then moves on to the next rule.
type rule struct {
	name string
	eval func(s Signals, text string) (Classification, bool)
}

// Classifier runs the rule chain. Safe for concurrent use.
type Classifier struct {
	kw    Keywords
	rules []rule
}

// NewClassifier builds a classifier from the given keyword configuration.
func NewClassifier(kw Keywords) *Classifier {
	c := &Classifier{kw: kw}
	c.rules = []rule{
		{"advertiser_label_private", c.advertiserLabelPrivate},
		{"advertiser_label_agency", c.advertiserLabelAgency},
		{"contact_type_private", c.contactTypePrivate},
		{"agency_id_and_name", c.agencyIDAndName},
		{"private_keywords", c.privateKeywords},
		{"agency_keywords", c.agencyKeywords},
		{"agency_signal_fallback", c.agencySignalFallback},
		{"no_agency_signal", c.noAgencySignal},
	}
	return c
}

// Classify runs the chain top to bottom and returns the first match. The
// final fallback always matches, so a result is always produced; ambiguity
// surfaces as low confidence, never as an error.
func (c *Classifier) Classify(s Signals) Classification {
	text := strings.ToLower(s.Title + " " + s.Description)
	for _, r := range c.rules {
		if cls, ok := r.eval(s, text); ok {
			cls.Rule = r.name
			return cls
		}
	}
	// Unreachable: noAgencySignal always matches.
	return Classification{OwnerType: OwnerPrivate, Confidence: ConfidenceLow, Rule: "no_agency_signal"}
}

func (c *Classifier) advertiserLabelPrivate(s Signals, _ string) (Classification, bool) {
	if !labelMatches(c.kw.PrivateLabels, s.AdvertiserLabel) {
		return Classification{}, false
	}
	return Classification{
		OwnerType:  OwnerPrivate,
		Confidence: ConfidenceHigh,
		Reasoning:  fmt.Sprintf("advertiser label %q identifies a private seller", s.AdvertiserLabel),
	}, true
}

func (c *Classifier) advertiserLabelAgency(s Signals, _ string) (Classification, bool) {
	if !labelMatches(c.kw.AgencyLabels, s.AdvertiserLabel) {
		return Classification{}, false
	}
	return Classification{
		OwnerType:  OwnerAgency,
		AgencyName: firstNonEmpty(s.AgencyName, s.AgencyID),
		Confidence: ConfidenceHigh,
		Reasoning:  fmt.Sprintf("advertiser label %q identifies an agency", s.AdvertiserLabel),
	}, true
}

func (c *Classifier) contactTypePrivate(s Signals, _ string) (Classification, bool) {
	if !labelMatches(c.kw.PrivateLabels, s.ContactType) {
		return Classification{}, false
	}
	return Classification{
		OwnerType:  OwnerPrivate,
		Confidence: ConfidenceHigh,
		Reasoning:  fmt.Sprintf("contact type %q indicates a private seller", s.ContactType),
	}, true
}

func (c *Classifier) agencyIDAndName(s Signals, _ string) (Classification, bool) {
	if s.AgencyID == "" || s.AgencyName == "" {
		return Classification{}, false
	}
	return Classification{
		OwnerType:  OwnerAgency,
		AgencyName: s.AgencyName,
		Confidence: ConfidenceHigh,
		Reasoning:  fmt.Sprintf("both agency id %q and agency name %q are present", s.AgencyID, s.AgencyName),
	}, true
}

func (c *Classifier) privateKeywords(_ Signals, text string) (Classification, bool) {
	matched := matchedFamilies(c.kw.PrivateFamilies, text)
	if len(matched) == 0 {
		return Classification{}, false
	}
	conf := ConfidenceMedium
	if len(matched) >= 2 {
		conf = ConfidenceHigh
	}
	return Classification{
		OwnerType:  OwnerPrivate,
		Confidence: conf,
		Reasoning:  fmt.Sprintf("private-seller phrases in free text: %s", strings.Join(matched, ", ")),
	}, true
}

func (c *Classifier) agencyKeywords(s Signals, text string) (Classification, bool) {
	matched := matchedFamilies(c.kw.AgencyFamilies, text)
	switch {
	case len(matched) >= 2:
		return Classification{
			OwnerType:  OwnerAgency,
			AgencyName: s.AgencyName,
			Confidence: ConfidenceHigh,
			Reasoning:  fmt.Sprintf("multiple agency phrase families in free text: %s", strings.Join(matched, ", ")),
		}, true
	case len(matched) == 1 && s.AgencyID != "":
		return Classification{
			OwnerType:  OwnerAgency,
			AgencyName: firstNonEmpty(s.AgencyName, s.AgencyID),
			Confidence: ConfidenceMedium,
			Reasoning:  fmt.Sprintf("agency phrase %q plus an agency identifier", matched[0]),
		}, true
	case len(matched) == 1 && len(s.Description) >= c.kw.LongDescriptionMin:
		return Classification{
			OwnerType:  OwnerAgency,
			AgencyName: s.AgencyName,
			Confidence: ConfidenceMedium,
			Reasoning:  fmt.Sprintf("agency phrase %q in a long, detailed description", matched[0]),
		}, true
	}
	return Classification{}, false
}

func (c *Classifier) agencySignalFallback(s Signals, _ string) (Classification, bool) {
	if s.AgencyID == "" && s.AgencyName == "" {
		return Classification{}, false
	}
	return Classification{
		OwnerType:  OwnerAgency,
		AgencyName: firstNonEmpty(s.AgencyName, s.AgencyID),
		Confidence: ConfidenceLow,
		Reasoning:  "an agency identifier or name is present without stronger signals",
	}, true
}

func (c *Classifier) noAgencySignal(Signals, string) (Classification, bool) {
	return Classification{
		OwnerType:  OwnerPrivate,
		Confidence: ConfidenceLow,
		Reasoning:  "no agency signal of any kind",
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
