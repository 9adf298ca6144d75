// internal/coverage/tier.go
package coverage

import "strings"

// Tier is a worker seniority tier.
type Tier string

const (
	Junior      Tier = "junior"
	Medior      Tier = "medior"
	Senior      Tier = "senior"
	Specialista Tier = "specialista"
)

// Effective levels. Senior and specialista share the top level.
const (
	levelJunior = 0
	levelMedior = 1
	levelSenior = 2

	levelCount = 3
)

var allTiers = []Tier{Junior, Medior, Senior, Specialista}

// AllTiers returns the tiers from lowest to highest.
func AllTiers() []Tier {
	out := make([]Tier, len(allTiers))
	copy(out, allTiers)
	return out
}

// ParseTier normalizes a raw seniority value. Empty or unknown values report false.
func ParseTier(raw string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

func (t Tier) Valid() bool {
	switch t {
	case Junior, Medior, Senior, Specialista:
		return true
	}
	return false
}

// Level returns the effective level of the tier, or -1 for an unknown tier.
func (t Tier) Level() int {
	switch t {
	case Junior:
		return levelJunior
	case Medior:
		return levelMedior
	case Senior, Specialista:
		return levelSenior
	}
	return -1
}

func (t Tier) String() string {
	return string(t)
}

// EligibleTiers lists the tiers whose workers may fill a slot of tier t:
// every tier at the same or a higher effective level.
func EligibleTiers(t Tier) []Tier {
	lvl := t.Level()
	if lvl < 0 {
		return nil
	}
	out := make([]Tier, 0, len(allTiers))
	for _, candidate := range allTiers {
		if candidate.Level() >= lvl {
			out = append(out, candidate)
		}
	}
	return out
}
