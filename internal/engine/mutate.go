package engine

import (
	"fmt"
	"math/rand/v2"
)

// Rand draws the per-stat random increment.
type Rand interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

// StatIncrease records one stat change from a quest completion.
// Drawn is the random roll in [1, multiplier]; Realized is what the clamp let through.
type StatIncrease struct {
	Stat     StatName
	Drawn    int
	Realized int
	Before   int
	After    int
}

// ValidateTargetStats enforces 1..3 distinct, known stat names.
func ValidateTargetStats(targets []StatName) error {
	if len(targets) < 1 || len(targets) > MaxTargetStats {
		return ValidationError("target_stats", fmt.Sprintf("a quest needs 1 to %d target stats, got %d", MaxTargetStats, len(targets)))
	}
	seen := make(map[StatName]bool, len(targets))
	for _, s := range targets {
		if !s.IsValid() {
			return ValidationError("target_stats", fmt.Sprintf("unknown stat %q", string(s)))
		}
		if seen[s] {
			return ValidationError("target_stats", fmt.Sprintf("duplicate stat %q", string(s)))
		}
		seen[s] = true
	}
	return nil
}

// ApplyQuestIncrements draws an increment for each target and applies it with the
// in-game clamp. Every target is validated before anything changes; the input
// vector is not modified. Level never moves here, only CanLevelUp is refreshed.
func ApplyQuestIncrements(v StatVector, targets []StatName, d Difficulty, rng Rand, policy LevelPolicy) (StatVector, []StatIncrease, error) {
	mult, err := d.Multiplier()
	if err != nil {
		return v, nil, err
	}
	if err := ValidateTargetStats(targets); err != nil {
		return v, nil, err
	}
	if rng == nil {
		rng = defaultRand{}
	}

	out := v
	increases := make([]StatIncrease, 0, len(targets))
	for _, s := range targets {
		drawn := rng.IntN(mult) + 1
		before := out.Get(s)
		out = out.With(s, before+drawn)
		after := out.Get(s)
		increases = append(increases, StatIncrease{
			Stat:     s,
			Drawn:    drawn,
			Realized: after - before,
			Before:   before,
			After:    after,
		})
	}
	out.TotalPoints = out.Total()
	out.CanLevelUp = RecomputeLevelEligibility(out, policy)
	return out, increases, nil
}

// ApplyInitialAssignment seeds a fresh level-1 vector from a parsed analysis.
// Each stat is clamped into [InitialStatFloor, StatCeiling].
func ApplyInitialAssignment(a ParsedAnalysis, policy LevelPolicy) StatVector {
	var v StatVector
	for i, n := range StatNames {
		v.Values[i] = a.Stats[n]
	}
	v.Level = 1
	return v.Normalize(InitialStatFloor, policy)
}

// ApplyManualGrant adds a positive amount to one stat. Stats never decrease.
func ApplyManualGrant(v StatVector, stat StatName, amount int, policy LevelPolicy) (StatVector, StatIncrease, error) {
	if !stat.IsValid() {
		return v, StatIncrease{}, ValidationError("stat", fmt.Sprintf("unknown stat %q", string(stat)))
	}
	if amount <= 0 {
		return v, StatIncrease{}, ValidationError("amount", "amount must be positive")
	}
	before := v.Get(stat)
	out := v.With(stat, before+amount)
	out.CanLevelUp = RecomputeLevelEligibility(out, policy)
	after := out.Get(stat)
	return out, StatIncrease{Stat: stat, Drawn: amount, Realized: after - before, Before: before, After: after}, nil
}

// ApplyLevelUp commits one level. The caller must have checked eligibility.
func ApplyLevelUp(v StatVector) StatVector {
	v.Level++
	v.TotalPoints = v.Total()
	v.CanLevelUp = false
	return v
}
