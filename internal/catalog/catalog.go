// Package catalog filters and groups the discovered component index for
// presentation. Pure functions over identity slices; no registry or runtime
// calls happen here.
package catalog

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/mberetvas/comspect/internal/com"
)

// field weights: a ProgID hit should outrank a class-id hit, which should
// outrank a description hit
const (
	progIDBonus  = 10
	classIDBonus = 5
)

// Filter ranks identities against a fuzzy query, best match first. Each
// identity is scored on ProgID, class id and description and keeps its best
// weighted score; identities with no match on any field are dropped. An
// empty query returns the input unchanged.
func Filter(identities []com.ComponentIdentity, query string) []com.ComponentIdentity {
	if query == "" {
		return identities
	}

	type scored struct {
		identity com.ComponentIdentity
		score    int
	}
	var kept []scored

	for _, identity := range identities {
		best, matched := bestScore(identity, query)
		if !matched {
			continue
		}
		kept = append(kept, scored{identity, best})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	out := make([]com.ComponentIdentity, len(kept))
	for i, s := range kept {
		out[i] = s.identity
	}
	return out
}

func bestScore(identity com.ComponentIdentity, query string) (int, bool) {
	best := 0
	matched := false
	for _, candidate := range []struct {
		text  string
		bonus int
	}{
		{identity.ProgID, progIDBonus},
		{identity.BracedClassID(), classIDBonus},
		{identity.Description, 0},
	} {
		matches := fuzzy.Find(query, []string{candidate.text})
		if len(matches) == 0 {
			continue
		}
		score := matches[0].Score + candidate.bonus
		if !matched || score > best {
			best = score
		}
		matched = true
	}
	return best, matched
}

// Group is one ProgID-prefix bucket of the index.
type Group struct {
	Name  string
	Items []com.ComponentIdentity
}

// GroupByPrefix buckets identities by the ProgID segment before the first
// dot ("Misc" when there is none). Groups come back alphabetically, items
// within a group sorted by ProgID.
func GroupByPrefix(identities []com.ComponentIdentity) []Group {
	buckets := make(map[string][]com.ComponentIdentity)
	for _, identity := range identities {
		prefix := identity.Prefix()
		buckets[prefix] = append(buckets[prefix], identity)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		items := buckets[name]
		sort.Slice(items, func(i, j int) bool { return items[i].ProgID < items[j].ProgID })
		groups = append(groups, Group{Name: name, Items: items})
	}
	return groups
}
