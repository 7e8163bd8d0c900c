package extractor

import (
	"sort"
	"strings"

	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Clustering
// ---------------------------------------------------------------------------

// cluster is a group of terms treated as one topic.  Taxonomy families map
// to one cluster each; free-text terms are merged by stem and doc overlap.
type cluster struct {
	representative string
	category       insight.Category
	members        []string
	importance     float64
	docs           map[int]struct{}
}

func (e *topicExtractor) clusterTerms(stats map[string]*termStat) []*cluster {
	var tax, free []*termStat
	for _, st := range stats {
		if st.taxonomy {
			tax = append(tax, st)
		} else {
			free = append(free, st)
		}
	}
	sort.Slice(tax, func(i, j int) bool {
		if tax[i].category != tax[j].category {
			return tax[i].category < tax[j].category
		}
		return tax[i].term < tax[j].term
	})
	sort.Slice(free, func(i, j int) bool { return free[i].term < free[j].term })

	clusters := make([]*cluster, 0, len(tax)+len(free))
	for _, st := range tax {
		clusters = append(clusters, newCluster([]*termStat{st}))
	}
	return append(clusters, mergeFreeTerms(free, e.config.MergeThreshold)...)
}

// mergeFreeTerms unions free-text terms that share a lexical stem or whose
// document sets overlap by at least the Jaccard threshold.  Overlap is
// evaluated on every pair, so the merge is independent of input order.
func mergeFreeTerms(stats []*termStat, threshold float64) []*cluster {
	n := len(stats)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	byStem := make(map[string]int, n)
	for i, st := range stats {
		s := stem(st.term)
		if first, ok := byStem[s]; ok {
			union(first, i)
		} else {
			byStem[s] = i
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if find(i) == find(j) {
				continue
			}
			if jaccard(stats[i].docs, stats[j].docs) >= threshold {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]*termStat, n)
	order := make([]int, 0, n)
	for i, st := range stats {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], st)
	}

	out := make([]*cluster, 0, len(order))
	for _, root := range order {
		out = append(out, newCluster(groups[root]))
	}
	return out
}

// newCluster folds member statistics into one cluster.  The representative
// is the member with the highest importance; ties go to the alphabetically
// smaller term.
func newCluster(members []*termStat) *cluster {
	rep := members[0]
	for _, st := range members[1:] {
		if st.importance > rep.importance ||
			(st.importance == rep.importance && st.term < rep.term) {
			rep = st
		}
	}

	c := &cluster{
		representative: rep.term,
		category:       rep.category,
		docs:           make(map[int]struct{}),
	}
	seen := make(map[string]struct{})
	for _, st := range members {
		c.importance += st.importance
		for d := range st.docs {
			c.docs[d] = struct{}{}
		}
		for s := range st.surfaces {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				c.members = append(c.members, s)
			}
		}
	}
	sort.Strings(c.members)
	return c
}

// jaccard is |a∩b| / |a∪b| over document index sets.
func jaccard(a, b map[int]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for d := range small {
		if _, ok := large[d]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// stem strips common English suffixes so inflected variants of one word
// land in the same cluster.  It is intentionally crude: stems are cluster
// keys, not display forms, and only consistency matters.
func stem(token string) string {
	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"),
		strings.HasSuffix(token, "us"),
		strings.HasSuffix(token, "is"):
		return token
	case strings.HasSuffix(token, "s") && len(token) > 3:
		return token[:len(token)-1]
	case strings.HasSuffix(token, "ing") && len(token) > 5 && hasVowel(token[:len(token)-3]):
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ed") && !strings.HasSuffix(token, "eed") &&
		len(token) > 4 && hasVowel(token[:len(token)-2]):
		return token[:len(token)-2]
	}
	return token
}

func hasVowel(s string) bool {
	return strings.ContainsAny(s, "aeiouy")
}
