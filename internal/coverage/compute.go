// internal/coverage/compute.go
package coverage

import "math"

type tierCounts map[Tier]int

func (c tierCounts) total() int {
	sum := 0
	for _, n := range c {
		sum += n
	}
	return sum
}

func (c tierCounts) byLevel() [levelCount]int {
	var out [levelCount]int
	for t, n := range c {
		out[t.Level()] += n
	}
	return out
}

// Compute reconciles required staffing against assigned workers.
//
// Workers at a higher effective level may fill lower-level slots, never the
// reverse. Senior and specialista are interchangeable.
func Compute(requirements []Requirement, assigned []AssignedWorker) Result {
	required := aggregateRequirements(requirements)
	totalRequired := required.total()
	if totalRequired == 0 {
		return Result{
			Status:   StatusFull,
			Missing:  []Tier{},
			Coverage: []TierCoverage{},
		}
	}

	have := aggregateAssigned(assigned)
	reqLevels := required.byLevel()
	haveLevels := have.byLevel()

	var missingLevels [levelCount]int
	filled, surplus := 0, 0
	for lvl := levelSenior; lvl >= levelJunior; lvl-- {
		available := haveLevels[lvl] + surplus
		covered := min(available, reqLevels[lvl])
		missingLevels[lvl] = max(0, reqLevels[lvl]-available)
		surplus = max(0, available-covered)
		filled += covered
	}

	missingSenior, missingSpecialista := splitTopShortfall(
		missingLevels[levelSenior], required[Senior], required[Specialista],
	)
	missingPerTier := tierCounts{
		Junior:      missingLevels[levelJunior],
		Medior:      missingLevels[levelMedior],
		Senior:      missingSenior,
		Specialista: missingSpecialista,
	}

	missing := make([]Tier, 0, missingPerTier.total())
	for _, t := range []Tier{Senior, Specialista, Medior, Junior} {
		for i := 0; i < missingPerTier[t]; i++ {
			missing = append(missing, t)
		}
	}

	details := make([]TierCoverage, 0, len(allTiers))
	for _, t := range allTiers {
		req := required[t]
		if req <= 0 {
			continue
		}
		miss := min(missingPerTier[t], req)
		covered := max(0, req-miss)
		details = append(details, TierCoverage{
			Seniority: t,
			Required:  req,
			Assigned:  have[t],
			Covered:   covered,
			Missing:   miss,
			Status:    tierStatus(covered, req),
		})
	}

	return Result{
		Status:   overallStatus(filled, totalRequired, len(missing), have.total()),
		Filled:   filled,
		Required: totalRequired,
		Missing:  missing,
		Coverage: details,
	}
}

// MergeRequirements sums duplicate tiers and returns them in tier order,
// dropping tiers with nothing required.
func MergeRequirements(requirements []Requirement) []Requirement {
	counts := aggregateRequirements(requirements)
	out := make([]Requirement, 0, len(counts))
	for _, t := range allTiers {
		if n := counts[t]; n > 0 {
			out = append(out, Requirement{Seniority: t, Count: n})
		}
	}
	return out
}

func aggregateRequirements(requirements []Requirement) tierCounts {
	counts := make(tierCounts, len(allTiers))
	for _, r := range requirements {
		t, ok := ParseTier(string(r.Seniority))
		if !ok || r.Count <= 0 {
			continue
		}
		counts[t] += r.Count
	}
	return counts
}

func aggregateAssigned(assigned []AssignedWorker) tierCounts {
	counts := make(tierCounts, len(allTiers))
	for _, w := range assigned {
		t, ok := ParseTier(string(w.Seniority))
		if !ok {
			continue
		}
		counts[t]++
	}
	return counts
}

// splitTopShortfall attributes a combined senior/specialista shortfall back to
// the two labels in proportion to what was originally required of each.
func splitTopShortfall(shortfall, reqSenior, reqSpecialista int) (int, int) {
	if shortfall <= 0 {
		return 0, 0
	}
	total := reqSenior + reqSpecialista
	if total <= 0 {
		return shortfall, 0
	}

	senior := roundHalfUp(float64(shortfall) * float64(reqSenior) / float64(total))
	specialista := roundHalfUp(float64(shortfall) * float64(reqSpecialista) / float64(total))

	if diff := shortfall - (senior + specialista); diff != 0 {
		if reqSenior > reqSpecialista {
			senior += diff
		} else {
			specialista += diff
		}
	}

	// Rounding correction may push one side below zero; move the excess over.
	if senior < 0 {
		specialista += senior
		senior = 0
	}
	if specialista < 0 {
		senior += specialista
		specialista = 0
	}
	return senior, specialista
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func tierStatus(covered, required int) TierStatus {
	switch {
	case covered >= required:
		return TierFull
	case covered > 0:
		return TierPartial
	default:
		return TierNone
	}
}

func overallStatus(filled, required, missing, assigned int) Status {
	switch {
	case filled >= required && missing == 0:
		return StatusFull
	case assigned >= required:
		return StatusComposition
	case filled > 0:
		return StatusPartial
	default:
		return StatusNone
	}
}
