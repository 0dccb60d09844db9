package dedupe

import "testing"

func TestUnionFindGroups(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(4, 5)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should share a root after transitive union")
	}
	if uf.find(3) == uf.find(0) {
		t.Error("3 was never unioned and must stay a singleton")
	}
	if uf.find(4) != uf.find(5) {
		t.Error("4 and 5 should share a root")
	}
	if uf.find(4) == uf.find(0) {
		t.Error("separate components must not merge")
	}
}

func TestUnionFindOrderIndependence(t *testing.T) {
	pairs := [][2]int{{0, 1}, {2, 3}, {1, 2}, {5, 6}}

	forward := newUnionFind(8)
	for _, p := range pairs {
		forward.union(p[0], p[1])
	}
	backward := newUnionFind(8)
	for i := len(pairs) - 1; i >= 0; i-- {
		backward.union(pairs[i][0], pairs[i][1])
	}

	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			f := forward.find(i) == forward.find(j)
			b := backward.find(i) == backward.find(j)
			if f != b {
				t.Fatalf("connectivity of (%d,%d) depends on union order", i, j)
			}
		}
	}
}
