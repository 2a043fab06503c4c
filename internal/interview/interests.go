package interview

import "math/rand"

// interestPool is the fixed set of personal interests a session draws from.
var interestPool = []string{
	"reading",
	"cricket",
	"classical music",
	"travelling",
	"photography",
	"cooking",
	"yoga",
	"gardening",
	"chess",
	"trekking",
}

// InterestPool returns a copy of the pool, mainly for tests and admin views.
func InterestPool() []string {
	out := make([]string, len(interestPool))
	copy(out, interestPool)
	return out
}

// DrawInterests picks n distinct interests without replacement. n is capped
// at the pool size.
func DrawInterests(n int) []string {
	if n > len(interestPool) {
		n = len(interestPool)
	}
	out := make([]string, 0, n)
	for _, i := range rand.Perm(len(interestPool))[:n] {
		out = append(out, interestPool[i])
	}
	return out
}
