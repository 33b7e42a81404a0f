package engine

import (
	"fmt"
	"math"
	"strings"
)

const (
	// TableMaxLevel is the last level of the table policy; no level-up past it.
	TableMaxLevel = 15

	tableBaseMinStat = 10
	tableStepMinStat = 5
	tableBaseTotal   = 100
	tableStepTotal   = 50

	scaledMinStatPerLevel = 50
	scaledTotalPerLevel   = 100
)

// Requirement describes what a vector needs to leave a level.
type Requirement struct {
	MinStatValue        int
	TotalPointsRequired int
}

// Eligibility is the outcome of a level-up check. Unmet is empty when Eligible.
type Eligibility struct {
	Eligible bool
	Unmet    []LevelCondition
}

// Progress is the display view of how close a vector is to its next level.
type Progress struct {
	Level          int
	Requirement    *Requirement
	Next           *Requirement
	PercentTotal   float64
	PercentMinStat float64
	CanLevelUp     bool
	AtMax          bool
}

// LevelPolicy decides level-up eligibility as a pure function of level and stats.
type LevelPolicy interface {
	Name() string
	// Requirement returns the thresholds for leaving level. ok is false past the max level.
	Requirement(level int) (Requirement, bool)
	// MaxLevel returns the terminal level, or 0 when unbounded.
	MaxLevel() int
	Eligibility(v StatVector) Eligibility
	Progress(v StatVector) Progress
}

// IsEligibleForLevelUp is a convenience over Eligibility.
func IsEligibleForLevelUp(policy LevelPolicy, v StatVector) bool {
	return policy.Eligibility(v).Eligible
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (LevelPolicy, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "", "table":
		return TablePolicy{}, nil
	case "scaled":
		return ScaledPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown level policy %q (table|scaled)", name)
	}
}

// TablePolicy is the bounded lookup-table policy: level 1 requires min stat 10
// and total 100, each further level adds 5 and 50, up to TableMaxLevel.
type TablePolicy struct{}

func (TablePolicy) Name() string  { return "table" }
func (TablePolicy) MaxLevel() int { return TableMaxLevel }

func (TablePolicy) Requirement(level int) (Requirement, bool) {
	if level < 1 || level > TableMaxLevel {
		return Requirement{}, false
	}
	return Requirement{
		MinStatValue:        tableBaseMinStat + tableStepMinStat*(level-1),
		TotalPointsRequired: tableBaseTotal + tableStepTotal*(level-1),
	}, true
}

func (p TablePolicy) Eligibility(v StatVector) Eligibility {
	if v.Level >= TableMaxLevel {
		return Eligibility{Unmet: []LevelCondition{ConditionMaxLevel}}
	}
	req, ok := p.Requirement(v.Level)
	if !ok {
		return Eligibility{Unmet: []LevelCondition{ConditionMaxLevel}}
	}
	return checkRequirement(v, req)
}

func (p TablePolicy) Progress(v StatVector) Progress {
	return progressFor(p, v)
}

// ScaledPolicy requires every stat >= 50*L and total >= 100*L to leave level L.
// It has no maximum level.
type ScaledPolicy struct{}

func (ScaledPolicy) Name() string  { return "scaled" }
func (ScaledPolicy) MaxLevel() int { return 0 }

func (ScaledPolicy) Requirement(level int) (Requirement, bool) {
	if level < 1 {
		return Requirement{}, false
	}
	return Requirement{
		MinStatValue:        scaledMinStatPerLevel * level,
		TotalPointsRequired: scaledTotalPerLevel * level,
	}, true
}

func (p ScaledPolicy) Eligibility(v StatVector) Eligibility {
	req, ok := p.Requirement(v.Level)
	if !ok {
		return Eligibility{Unmet: []LevelCondition{ConditionStatFloor, ConditionTotalPoints}}
	}
	return checkRequirement(v, req)
}

func (p ScaledPolicy) Progress(v StatVector) Progress {
	return progressFor(p, v)
}

func checkRequirement(v StatVector, req Requirement) Eligibility {
	var unmet []LevelCondition
	if v.MinStat() < req.MinStatValue {
		unmet = append(unmet, ConditionStatFloor)
	}
	// Total is recomputed; a stored TotalPoints is never trusted here.
	if v.Total() < req.TotalPointsRequired {
		unmet = append(unmet, ConditionTotalPoints)
	}
	return Eligibility{Eligible: len(unmet) == 0, Unmet: unmet}
}

func progressFor(p LevelPolicy, v StatVector) Progress {
	out := Progress{Level: v.Level}
	req, ok := p.Requirement(v.Level)
	if !ok || (p.MaxLevel() > 0 && v.Level >= p.MaxLevel()) {
		out.AtMax = true
		out.PercentTotal = 100
		out.PercentMinStat = 100
		if ok {
			out.Requirement = &req
		}
		return out
	}
	out.Requirement = &req
	if next, ok := p.Requirement(v.Level + 1); ok {
		out.Next = &next
	}
	out.PercentTotal = percent(v.Total(), req.TotalPointsRequired)
	out.PercentMinStat = percent(v.MinStat(), req.MinStatValue)
	out.CanLevelUp = p.Eligibility(v).Eligible
	return out
}

func percent(value, required int) float64 {
	if required <= 0 {
		return 100
	}
	return math.Min(100, float64(value)/float64(required)*100)
}
