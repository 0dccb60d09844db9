package dedupe

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// PairScore records why two cluster members were linked, for auditability.
type PairScore struct {
	A, B  int
	Match Match
}

// Cluster is a set of listing indices believed to denote the same physical
// property, with the pairwise scores that justified grouping them.
// Clusters only live for the duration of a scan run.
type Cluster struct {
	Members []int
	Pairs   []PairScore
}

// Cluster partitions the candidates into connected components of the
// linkable relation. Candidates are bucketed by normalized city so the
// quadratic pairwise pass stays bounded; buckets are scored in parallel
// and the union-find merge is applied in a deterministic order afterwards,
// so the partition is identical regardless of scheduling.
func (g Gates) Cluster(ctx context.Context, cands []Candidate) ([]Cluster, error) {
	buckets := make(map[string][]int)
	for i, c := range cands {
		key := c.Address.City
		buckets[key] = append(buckets[key], i)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bucketPairs := make([][]PairScore, len(keys))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())

	for bi, key := range keys {
		members := buckets[key]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var pairs []PairScore
			for x := 0; x < len(members); x++ {
				for y := x + 1; y < len(members); y++ {
					i, j := members[x], members[y]
					if m := g.Compare(cands[i], cands[j]); m.Linkable {
						pairs = append(pairs, PairScore{A: i, B: j, Match: m})
					}
				}
			}
			bucketPairs[bi] = pairs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	uf := newUnionFind(len(cands))
	for _, pairs := range bucketPairs {
		for _, p := range pairs {
			uf.union(p.A, p.B)
		}
	}

	byRoot := make(map[int]*Cluster)
	for i := range cands {
		root := uf.find(i)
		cl, ok := byRoot[root]
		if !ok {
			cl = &Cluster{}
			byRoot[root] = cl
		}
		cl.Members = append(cl.Members, i)
	}
	for _, pairs := range bucketPairs {
		for _, p := range pairs {
			byRoot[uf.find(p.A)].Pairs = append(byRoot[uf.find(p.A)].Pairs, p)
		}
	}

	clusters := make([]Cluster, 0, len(byRoot))
	for _, cl := range byRoot {
		sort.Ints(cl.Members)
		sort.Slice(cl.Pairs, func(x, y int) bool {
			if cl.Pairs[x].A != cl.Pairs[y].A {
				return cl.Pairs[x].A < cl.Pairs[y].A
			}
			return cl.Pairs[x].B < cl.Pairs[y].B
		})
		clusters = append(clusters, *cl)
	}
	sort.Slice(clusters, func(x, y int) bool {
		return clusters[x].Members[0] < clusters[y].Members[0]
	})
	return clusters, nil
}
