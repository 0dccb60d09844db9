package service

import (
	"sort"

	"propscan_backend/internal/address"
	listingrepo "propscan_backend/internal/listings/repository"
	"propscan_backend/internal/ownership"
	"propscan_backend/internal/properties/repository"
)

// confidenceRank orders classification confidence for tie-breaking.
func confidenceRank(c string) int {
	switch ownership.Confidence(c) {
	case ownership.ConfidenceHigh:
		return 3
	case ownership.ConfidenceMedium:
		return 2
	case ownership.ConfidenceLow:
		return 1
	}
	return 0
}

// aggregateCluster merges one cluster of listings into the canonical
// record to upsert. Address and city come from the highest-confidence
// member; price and size from the most recently observed one, ties
// broken by confidence. Coordinates, stage and buyer interest are not
// set here: they belong to other writers.
func aggregateCluster(members []listingrepo.Listing) repository.SharedProperty {
	addrMember := members[0]
	for _, m := range members[1:] {
		if confidenceRank(m.OwnerConfidence) > confidenceRank(addrMember.OwnerConfidence) {
			addrMember = m
		}
	}

	recent := members[0]
	for _, m := range members[1:] {
		if m.SeenAt.After(recent.SeenAt) {
			recent = m
			continue
		}
		if m.SeenAt.Equal(recent.SeenAt) && confidenceRank(m.OwnerConfidence) > confidenceRank(recent.OwnerConfidence) {
			recent = m
		}
	}

	agencyNames := map[string]struct{}{}
	hasAgency, hasPrivate := false, false
	for _, m := range members {
		switch ownership.OwnerType(m.OwnerType) {
		case ownership.OwnerAgency:
			hasAgency = true
			if name := agencyName(m); name != "" {
				agencyNames[name] = struct{}{}
			}
		case ownership.OwnerPrivate:
			hasPrivate = true
		}
	}

	names := make([]string, 0, len(agencyNames))
	for name := range agencyNames {
		names = append(names, name)
	}
	sort.Strings(names)

	norm := address.Normalize(addrMember.RawAddress, addrMember.City)

	return repository.SharedProperty{
		Address:          addrMember.RawAddress,
		City:             norm.City,
		NormalizedKey:    norm.Key(),
		Price:            recent.Price,
		SizeSqm:          recent.SizeSqm,
		IsMultiagency:    len(names) >= 2 || (hasAgency && hasPrivate),
		OwnerTypeSummary: ownerTypeSummary(hasAgency, hasPrivate),
		AgencyNames:      names,
		ListingCount:     len(members),
	}
}

// agencyName prefers the name extracted by the classifier over the raw
// feed field.
func agencyName(m listingrepo.Listing) string {
	if m.OwnerAgencyName != "" {
		return m.OwnerAgencyName
	}
	return m.AgencyName
}

func ownerTypeSummary(hasAgency, hasPrivate bool) string {
	switch {
	case hasAgency && hasPrivate:
		return "mixed"
	case hasAgency:
		return "agency"
	default:
		return "private"
	}
}
