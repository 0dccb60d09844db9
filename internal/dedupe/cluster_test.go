package dedupe

import (
	"context"
	"testing"
)

func TestClusterPartition(t *testing.T) {
	g := DefaultGates()
	cands := []Candidate{
		candidate(0, "Via Roma 10", "Milano", 300000, 80),
		candidate(1, "Via Roma, 10", "Milano", 305000, 82),
		candidate(2, "Corso Como 5", "Milano", 450000, 95),
		candidate(3, "Via Roma 10", "Torino", 300000, 80), // other city bucket
		candidate(4, "V. Roma 10", "Milano", 299000, 81),
	}

	clusters, err := g.Cluster(context.Background(), cands)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}

	// Every listing appears in exactly one cluster.
	seen := make(map[int]int)
	for _, cl := range clusters {
		for _, m := range cl.Members {
			seen[m]++
		}
	}
	if len(seen) != len(cands) {
		t.Fatalf("partition covers %d listings, want %d", len(seen), len(cands))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("listing %d appears in %d clusters", idx, count)
		}
	}

	if len(clusters) != 3 {
		t.Fatalf("got %d clusters, want 3 (triplet + two singletons): %+v", len(clusters), clusters)
	}

	var triplet *Cluster
	for i := range clusters {
		if len(clusters[i].Members) == 3 {
			triplet = &clusters[i]
		}
	}
	if triplet == nil {
		t.Fatal("expected listings 0,1,4 to form one cluster")
	}
	want := []int{0, 1, 4}
	for i, m := range triplet.Members {
		if m != want[i] {
			t.Fatalf("triplet members = %v, want %v", triplet.Members, want)
		}
	}
	if len(triplet.Pairs) == 0 {
		t.Error("cluster must carry the pairwise scores that justified it")
	}
}

func TestClusterCityBucketingSeparates(t *testing.T) {
	g := DefaultGates()
	// Identical address text in different cities stays separate.
	cands := []Candidate{
		candidate(0, "Via Roma 10", "Milano", 300000, 80),
		candidate(1, "Via Roma 10", "Torino", 300000, 80),
	}

	clusters, err := g.Cluster(context.Background(), cands)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
}

func TestClusterDeterministicAcrossOrderings(t *testing.T) {
	g := DefaultGates()
	base := []Candidate{
		candidate(0, "Via Roma 10", "Milano", 300000, 80),
		candidate(1, "Via Roma 10", "Milano", 305000, 82),
		candidate(2, "Corso Como 5", "Milano", 450000, 95),
		candidate(3, "Corso Como 5", "Milano", 455000, 96),
	}

	first, err := g.Cluster(context.Background(), base)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := g.Cluster(context.Background(), base)
		if err != nil {
			t.Fatalf("cluster: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d clusters vs %d", run, len(again), len(first))
		}
		for i := range first {
			if len(first[i].Members) != len(again[i].Members) {
				t.Fatalf("run %d: cluster %d size differs", run, i)
			}
			for j := range first[i].Members {
				if first[i].Members[j] != again[i].Members[j] {
					t.Fatalf("run %d: cluster %d member %d differs", run, i, j)
				}
			}
		}
	}
}

func TestClusterSingletonForUnmatched(t *testing.T) {
	g := DefaultGates()
	cands := []Candidate{
		candidate(0, "Via Isolata 1", "Milano", 100000, 40),
	}

	clusters, err := g.Cluster(context.Background(), cands)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(clusters) != 1 || len(clusters[0].Members) != 1 {
		t.Fatalf("lone listing must form a singleton cluster, got %+v", clusters)
	}
}

func TestClusterEmptyInput(t *testing.T) {
	clusters, err := DefaultGates().Cluster(context.Background(), nil)
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("got %d clusters for empty input", len(clusters))
	}
}
