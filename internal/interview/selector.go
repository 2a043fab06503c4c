package interview

import "math/rand"

// SelectTopic is a pluggable topic-selection strategy: given the catalog and
// the covered history (one entry per activation), it names the next topic.
type SelectTopic func(catalog []Topic, covered []string) string

func coverageCounts(covered []string) map[string]int {
	seen := make(map[string]int, len(covered))
	for _, name := range covered {
		seen[name]++
	}
	return seen
}

// NextUncovered is the default strategy: the first catalog topic never yet
// covered; failing that, the first covered exactly once; once every topic
// has been covered twice, a uniformly random pick from the full catalog.
func NextUncovered(catalog []Topic, covered []string) string {
	seen := coverageCounts(covered)

	for _, t := range catalog {
		if seen[t.Name] == 0 {
			return t.Name
		}
	}
	for _, t := range catalog {
		if seen[t.Name] == 1 {
			return t.Name
		}
	}
	return catalog[rand.Intn(len(catalog))].Name
}

// RandomUncovered picks uniformly at random among the topics at the lowest
// coverage tier instead of taking the first in catalog order. Same tiers as
// NextUncovered.
func RandomUncovered(catalog []Topic, covered []string) string {
	seen := coverageCounts(covered)

	for _, tier := range []int{0, 1} {
		var eligible []string
		for _, t := range catalog {
			if seen[t.Name] == tier {
				eligible = append(eligible, t.Name)
			}
		}
		if len(eligible) > 0 {
			return eligible[rand.Intn(len(eligible))]
		}
	}
	return catalog[rand.Intn(len(catalog))].Name
}
