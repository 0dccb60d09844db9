package service

import (
	"testing"
	"time"

	listingrepo "propscan_backend/internal/listings/repository"
)

func member(owner, confidence, agencyName string, price, size float64, seen time.Time) listingrepo.Listing {
	return listingrepo.Listing{
		RawAddress:      "Via Roma 10",
		City:            "Milano",
		Price:           price,
		SizeSqm:         size,
		OwnerType:       owner,
		OwnerConfidence: confidence,
		OwnerAgencyName: agencyName,
		SeenAt:          seen,
	}
}

func TestAggregateClusterMixedOwnership(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	got := aggregateCluster([]listingrepo.Listing{
		member("agency", "high", "Agenzia Sole", 300000, 80, older),
		member("private", "medium", "", 305000, 82, newer),
	})

	if !got.IsMultiagency {
		t.Error("agency + private cluster should be multiagency")
	}
	if got.OwnerTypeSummary != "mixed" {
		t.Errorf("OwnerTypeSummary = %q, want mixed", got.OwnerTypeSummary)
	}
	// Most recent observation wins price and size.
	if got.Price != 305000 || got.SizeSqm != 82 {
		t.Errorf("price/size = %v/%v, want 305000/82", got.Price, got.SizeSqm)
	}
	if got.NormalizedKey != "via roma 10" {
		t.Errorf("NormalizedKey = %q", got.NormalizedKey)
	}
	if got.City != "milano" {
		t.Errorf("City = %q, want milano", got.City)
	}
	if got.ListingCount != 2 {
		t.Errorf("ListingCount = %d, want 2", got.ListingCount)
	}
}

func TestAggregateClusterTwoAgencies(t *testing.T) {
	seen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	got := aggregateCluster([]listingrepo.Listing{
		member("agency", "high", "Agenzia Sole", 300000, 80, seen),
		member("agency", "medium", "Casa Più", 302000, 80, seen),
	})

	if !got.IsMultiagency {
		t.Error("two distinct agencies should be multiagency")
	}
	if got.OwnerTypeSummary != "agency" {
		t.Errorf("OwnerTypeSummary = %q, want agency", got.OwnerTypeSummary)
	}
	if len(got.AgencyNames) != 2 {
		t.Fatalf("AgencyNames = %v, want 2 entries", got.AgencyNames)
	}
	// Distinct names come out sorted for stable storage.
	if got.AgencyNames[0] != "Agenzia Sole" || got.AgencyNames[1] != "Casa Più" {
		t.Errorf("AgencyNames = %v", got.AgencyNames)
	}
}

func TestAggregateClusterSameAgencyTwice(t *testing.T) {
	seen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	got := aggregateCluster([]listingrepo.Listing{
		member("agency", "high", "Agenzia Sole", 300000, 80, seen),
		member("agency", "low", "Agenzia Sole", 300000, 80, seen),
	})

	if got.IsMultiagency {
		t.Error("one agency advertising twice is not multiagency")
	}
	if got.OwnerTypeSummary != "agency" {
		t.Errorf("OwnerTypeSummary = %q, want agency", got.OwnerTypeSummary)
	}
}

func TestAggregateClusterPrivateOnly(t *testing.T) {
	seen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	got := aggregateCluster([]listingrepo.Listing{
		member("private", "high", "", 250000, 70, seen),
	})

	if got.IsMultiagency {
		t.Error("single private listing is not multiagency")
	}
	if got.OwnerTypeSummary != "private" {
		t.Errorf("OwnerTypeSummary = %q, want private", got.OwnerTypeSummary)
	}
	if got.ListingCount != 1 {
		t.Errorf("ListingCount = %d, want 1", got.ListingCount)
	}
}

func TestAggregateClusterAddressFromHighestConfidence(t *testing.T) {
	seen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	low := member("private", "low", "", 250000, 70, seen.Add(time.Hour))
	low.RawAddress = "v. roma 10"
	high := member("agency", "high", "Agenzia Sole", 249000, 70, seen)
	high.RawAddress = "Via Roma 10"

	got := aggregateCluster([]listingrepo.Listing{low, high})

	if got.Address != "Via Roma 10" {
		t.Errorf("Address = %q, want the high-confidence member's", got.Address)
	}
	// Price still follows recency, independent of the address pick.
	if got.Price != 250000 {
		t.Errorf("Price = %v, want 250000", got.Price)
	}
}

func TestAggregateClusterSeenAtTieBrokenByConfidence(t *testing.T) {
	seen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	got := aggregateCluster([]listingrepo.Listing{
		member("agency", "low", "Agenzia Sole", 300000, 80, seen),
		member("agency", "high", "Agenzia Sole", 299000, 81, seen),
	})

	if got.Price != 299000 || got.SizeSqm != 81 {
		t.Errorf("price/size = %v/%v, want the high-confidence member's", got.Price, got.SizeSqm)
	}
}
